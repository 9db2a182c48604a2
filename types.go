package autologin

import (
	"context"
	"encoding/json"
	"time"
)

// TokenValidation defines a public type used by autologin APIs.
//
// TokenValidation instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenValidation struct {
	Valid        bool   `json:"valid"`
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

// LoginResult defines a public type used by autologin APIs.
//
// LoginResult instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LoginResult struct {
	Success bool            `json:"success"`
	Token   string          `json:"token"`
	User    json.RawMessage `json:"user"`
	Message string          `json:"message"`
}

// AccountAPI is the remote contract the Engine reconciles against. The
// production implementation lives in the restapi sub-package; tests supply
// fakes.
//
// All methods must honor ctx cancellation. Logout is best-effort: the
// Engine logs its failure and proceeds.
type AccountAPI interface {
	ValidateTemporaryToken(ctx context.Context, token string) (*TokenValidation, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, bearerToken string) error
}

// Status defines a public type used by autologin APIs.
//
// Status instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Status string

const (
	// StatusMissingToken is an exported constant or variable used by the reconciliation engine.
	StatusMissingToken Status = "missing_token"
	// StatusInvalidToken is an exported constant or variable used by the reconciliation engine.
	StatusInvalidToken Status = "invalid_token"
	// StatusConnectionError is an exported constant or variable used by the reconciliation engine.
	StatusConnectionError Status = "connection_error"
	// StatusLoginRejected is an exported constant or variable used by the reconciliation engine.
	StatusLoginRejected Status = "login_rejected"
	// StatusAlreadyActive is an exported constant or variable used by the reconciliation engine.
	StatusAlreadyActive Status = "already_active"
	// StatusSuccess is an exported constant or variable used by the reconciliation engine.
	StatusSuccess Status = "success"
)

// Redirect defines a public type used by autologin APIs.
//
// Redirect instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Redirect int

const (
	// RedirectLogin is an exported constant or variable used by the reconciliation engine.
	RedirectLogin Redirect = iota
	// RedirectDashboard is an exported constant or variable used by the reconciliation engine.
	RedirectDashboard
)

// String describes the string operation and its observable behavior.
func (r Redirect) String() string {
	switch r {
	case RedirectDashboard:
		return "dashboard"
	default:
		return "login"
	}
}

// Result is the terminal outcome of one reconciliation. Every Reconcile
// call that passes the entry guard produces exactly one Result; the host
// performs the named redirect after the advisory Delay.
type Result struct {
	// Redirect names the terminal navigation target.
	Redirect Redirect

	// Status classifies the outcome.
	Status Status

	// Email is the reconciled identity on success / already-active paths.
	Email string

	// Reason carries the server-provided message on login rejection.
	Reason string

	// Delay is advisory: how long the host should display the outcome
	// before navigating. The Engine never sleeps for it.
	Delay time.Duration

	// Cause holds the sentinel (possibly wrapped) behind a failure
	// status, nil on success.
	Cause error

	// AttemptID correlates the Result with audit events and logs.
	AttemptID string
}

// Phase defines a public type used by autologin APIs.
//
// Phase instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Phase uint32

const (
	// PhaseIdle is an exported constant or variable used by the reconciliation engine.
	PhaseIdle Phase = iota
	// PhaseValidating is an exported constant or variable used by the reconciliation engine.
	PhaseValidating
	// PhaseReconciling is an exported constant or variable used by the reconciliation engine.
	PhaseReconciling
	// PhaseLoggingIn is an exported constant or variable used by the reconciliation engine.
	PhaseLoggingIn
	// PhaseSaving is an exported constant or variable used by the reconciliation engine.
	PhaseSaving
	// PhaseDone is an exported constant or variable used by the reconciliation engine.
	PhaseDone
)

// String describes the string operation and its observable behavior.
func (p Phase) String() string {
	switch p {
	case PhaseValidating:
		return "validating"
	case PhaseReconciling:
		return "reconciling"
	case PhaseLoggingIn:
		return "logging-in"
	case PhaseSaving:
		return "saving"
	case PhaseDone:
		return "done"
	default:
		return "idle"
	}
}
