package session

import "encoding/json"

// Session defines a public type used by the reconciliation engine APIs.
//
// A Session is the persisted record of the single authenticated identity.
// It is either fully present or fully absent; a record with only some of
// its fields stored is corruption that [Store.Verify] reports as partial.
type Session struct {
	// Token is the opaque bearer credential issued by the remote API.
	Token string `json:"token"`

	// Email is the identity key and the discriminator used when deciding
	// whether an existing record belongs to the same account.
	Email string `json:"email"`

	// User is the profile payload as returned by the remote API. It is
	// stored and returned verbatim, never interpreted.
	User json.RawMessage `json:"user"`

	// CreatedAt is the record creation time in milliseconds since epoch.
	CreatedAt int64 `json:"timestamp"`
}

// VerifyResult defines a public type used by the reconciliation engine APIs.
//
// VerifyResult reports the stored record against a candidate identity
// without mutating anything.
type VerifyResult struct {
	// Exists is true when both the token and the email are present.
	Exists bool

	// EmailMatches is true when Exists and the stored email equals the
	// candidate passed to [Store.Verify].
	EmailMatches bool

	// Email is the stored email verbatim, empty when absent.
	Email string

	// Partial is true when exactly one of token/email is present, which
	// indicates a corrupt record that should be repaired by clearing.
	Partial bool
}

// Snapshot is an observability-only view of the stored record. Producing
// one never mutates state.
type Snapshot struct {
	TokenPrefix string
	Email       string
	HasToken    bool
	HasEmail    bool
	HasUser     bool
	AgeMillis   int64
}

const tokenPrefixLen = 8

// TokenPrefix returns a short non-sensitive prefix of a credential for
// logs and audit events. The full token never leaves the store.
func TokenPrefix(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= tokenPrefixLen {
		return token
	}
	return token[:tokenPrefixLen]
}
