package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable is an exported constant or variable used by the reconciliation engine.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrIncompleteSession is returned when Save is given a record missing its
// token or email. Persisting such a record would violate the
// all-or-nothing invariant the rest of the engine relies on.
var ErrIncompleteSession = errors.New("session record incomplete")

const (
	keyAuthToken     = "auth_token"
	keyUserEmail     = "user_email"
	keyUser          = "user"
	keyUserSession   = "user_session"
	keyLastProcessed = "last_autologin_token"
	keyRememberMe    = "remember_me"
	keyLastActivity  = "last_activity"
	keySessionID     = "session_id"
)

// forceCleanFragments lists the substrings that mark a key as
// auth-related for ForceCleanAll. Deliberately broad: the wipe is a
// last-resort convergence path and over-deletion of unrelated matching
// keys is an accepted tradeoff.
var forceCleanFragments = []string{
	"auth",
	"user",
	"token",
	"session",
	"remember",
	"last_",
}

const defaultScanCount = 500

const forceCleanDelBatch = 128

// Store is a Redis-backed record of the single active authenticated
// identity. All writes are full replacements inside one transaction;
// reads never mutate state.
//
//	Docs: docs/session.md
type Store struct {
	redis     redis.UniversalClient
	prefix    string
	clock     clockwork.Clock
	scanCount int64
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix sets the Redis key namespace; scanCount tunes the SCAN page
// size used by ForceCleanAll (<= 0 selects the default). A nil clock
// selects the real clock.
//
//	Docs: docs/session.md
func NewStore(
	redis redis.UniversalClient,
	prefix string,
	clock clockwork.Clock,
	scanCount int64,
) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if scanCount <= 0 {
		scanCount = defaultScanCount
	}
	return &Store{
		redis:     redis,
		prefix:    prefix,
		clock:     clock,
		scanCount: scanCount,
	}
}

func (s *Store) key(name string) string {
	return s.prefix + ":" + name
}

// Save persists a [Session], replacing whatever record was stored before.
// All fields are written in one transaction so no observer ever sees a
// half-written record. Records missing token or email are rejected with
// [ErrIncompleteSession].
//
//	Performance: 4 Redis SETs in one MULTI/EXEC.
//	Docs: docs/session.md
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.Token == "" || sess.Email == "" {
		return ErrIncompleteSession
	}

	record := *sess
	if record.CreatedAt == 0 {
		record.CreatedAt = s.clock.Now().UnixMilli()
	}
	user := record.User
	if len(user) == 0 {
		user = json.RawMessage("null")
		record.User = user
	}

	composite, err := json.Marshal(&record)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(keyAuthToken), record.Token, 0)
		pipe.Set(ctx, s.key(keyUserEmail), record.Email, 0)
		pipe.Set(ctx, s.key(keyUser), []byte(user), 0)
		pipe.Set(ctx, s.key(keyUserSession), composite, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Clear removes the session record and every auxiliary key, including
// the processed-token marker. Idempotent: clearing an absent record
// succeeds.
//
//	Performance: 1 Redis DEL in one MULTI/EXEC.
//	Docs: docs/session.md
func (s *Store) Clear(ctx context.Context) error {
	keys := []string{
		s.key(keyAuthToken),
		s.key(keyUserEmail),
		s.key(keyUser),
		s.key(keyUserSession),
		s.key(keyLastProcessed),
		s.key(keyRememberMe),
		s.key(keyLastActivity),
		s.key(keySessionID),
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// ForceCleanAll cursor-scans the whole keyspace and deletes every key
// whose name contains an auth-related fragment. This is the escalation
// path for when Clear is observed not to converge; it is an O(n)
// operation and must not be used on request hot paths.
//
//	Docs: docs/session.md
func (s *Store) ForceCleanAll(ctx context.Context) error {
	var (
		cursor uint64
		batch  []string
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.redis.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		batch = batch[:0]
		return nil
	}

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, "*", s.scanCount).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		for _, key := range keys {
			if keyLooksAuthRelated(key) {
				batch = append(batch, key)
				if len(batch) >= forceCleanDelBatch {
					if err := flush(); err != nil {
						return err
					}
				}
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return flush()
}

func keyLooksAuthRelated(key string) bool {
	for _, fragment := range forceCleanFragments {
		if strings.Contains(key, fragment) {
			return true
		}
	}
	return false
}

// CurrentEmail returns the stored identity email, empty when absent.
func (s *Store) CurrentEmail(ctx context.Context) (string, error) {
	return s.getString(ctx, s.key(keyUserEmail))
}

// Token returns the stored bearer credential, empty when absent.
func (s *Store) Token(ctx context.Context) (string, error) {
	return s.getString(ctx, s.key(keyAuthToken))
}

// HasValidToken reports whether a non-empty bearer credential is stored.
func (s *Store) HasValidToken(ctx context.Context) (bool, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// Verify compares the stored record against a candidate identity.
// It reports existence (token AND email present), whether the stored
// email matches the candidate, the stored email verbatim, and whether
// the record is partial. Never mutates state.
//
//	Performance: 1 Redis MGET.
//	Docs: docs/session.md
func (s *Store) Verify(ctx context.Context, candidateEmail string) (VerifyResult, error) {
	values, err := s.redis.MGet(ctx, s.key(keyAuthToken), s.key(keyUserEmail)).Result()
	if err != nil {
		return VerifyResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	token := stringValue(values[0])
	email := stringValue(values[1])

	result := VerifyResult{
		Exists:  token != "" && email != "",
		Email:   email,
		Partial: (token != "") != (email != ""),
	}
	result.EmailMatches = result.Exists && email == candidateEmail
	return result, nil
}

// LastProcessedToken returns the duplicate-suppression marker, empty
// when no reconciliation has completed in this keyspace.
func (s *Store) LastProcessedToken(ctx context.Context) (string, error) {
	return s.getString(ctx, s.key(keyLastProcessed))
}

// MarkProcessedToken records an inbound one-time token as consumed so a
// replay of the same deep link can be suppressed without a remote
// round-trip. The marker lives outside the session record but is removed
// together with it by Clear.
func (s *Store) MarkProcessedToken(ctx context.Context, token string) error {
	if err := s.redis.Set(ctx, s.key(keyLastProcessed), token, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Snapshot returns an observability view of the stored record: token
// prefix, email, presence flags, and record age. Never mutates state.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	values, err := s.redis.MGet(
		ctx,
		s.key(keyAuthToken),
		s.key(keyUserEmail),
		s.key(keyUser),
		s.key(keyUserSession),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	token := stringValue(values[0])
	email := stringValue(values[1])
	user := stringValue(values[2])

	snap := &Snapshot{
		TokenPrefix: TokenPrefix(token),
		Email:       email,
		HasToken:    token != "",
		HasEmail:    email != "",
		HasUser:     user != "" && user != "null",
	}

	if composite := stringValue(values[3]); composite != "" {
		var record Session
		if err := json.Unmarshal([]byte(composite), &record); err == nil && record.CreatedAt > 0 {
			snap.AgeMillis = s.clock.Now().UnixMilli() - record.CreatedAt
		}
	}

	return snap, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := s.clock.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return s.clock.Since(start), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s.clock.Since(start), nil
}

func (s *Store) getString(ctx context.Context, key string) (string, error) {
	value, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return value, nil
}

func stringValue(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case []byte:
		return string(value)
	default:
		return ""
	}
}
