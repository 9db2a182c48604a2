package autologin

import (
	"context"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/elgranjm3000/controlagenda-sub000/session"
)

// sessionStore is the narrow view of the session store the Engine needs.
// *session.Store satisfies it; tests substitute fault-injecting wrappers.
type sessionStore interface {
	Save(ctx context.Context, sess *session.Session) error
	Clear(ctx context.Context) error
	ForceCleanAll(ctx context.Context) error
	CurrentEmail(ctx context.Context) (string, error)
	Token(ctx context.Context) (string, error)
	Verify(ctx context.Context, candidateEmail string) (session.VerifyResult, error)
	LastProcessedToken(ctx context.Context) (string, error)
	MarkProcessedToken(ctx context.Context, token string) error
	Snapshot(ctx context.Context) (*session.Snapshot, error)
}

// Engine defines a public type used by autologin APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config  Config
	store   sessionStore
	api     AccountAPI
	clock   clockwork.Clock
	logger  *zap.Logger
	audit   *auditDispatcher
	metrics *Metrics

	inFlight atomic.Bool
	phase    atomic.Uint32
}

// Close describes the close operation and its observable behavior.
//
// Close drains the audit dispatcher before returning.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Phase reports which step of the reconciliation the Engine is currently
// in, PhaseIdle when none is running.
func (e *Engine) Phase() Phase {
	if e == nil {
		return PhaseIdle
	}
	return Phase(e.phase.Load())
}

func (e *Engine) setPhase(p Phase) {
	e.phase.Store(uint32(p))
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// VerifySession describes the verifysession operation and its observable behavior.
//
// VerifySession re-exports the store's read-only comparison of the
// persisted record against a candidate identity.
func (e *Engine) VerifySession(ctx context.Context, email string) (session.VerifyResult, error) {
	if e == nil || e.store == nil {
		return session.VerifyResult{}, ErrEngineNotReady
	}
	return e.store.Verify(ctx, email)
}

// DebugSession logs the store snapshot through the engine's logger and
// returns it. Never mutates the persisted record.
func (e *Engine) DebugSession(ctx context.Context) (*session.Snapshot, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	e.logger.Info("session snapshot",
		zap.String("token_prefix", snap.TokenPrefix),
		zap.String("email", snap.Email),
		zap.Bool("has_token", snap.HasToken),
		zap.Bool("has_email", snap.HasEmail),
		zap.Bool("has_user", snap.HasUser),
		zap.Int64("age_ms", snap.AgeMillis),
	)

	return snap, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout performs a best-effort remote logout with the stored bearer, then
// clears the local record and confirms by read-back, escalating to
// ForceCleanAll when the record is still observed.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if e.api != nil {
		if bearer, err := e.store.Token(ctx); err == nil && bearer != "" {
			if lerr := e.api.Logout(ctx, bearer); lerr != nil {
				e.metricInc(MetricRemoteLogoutFailure)
				e.logger.Warn("remote logout failed",
					zap.String("token_prefix", session.TokenPrefix(bearer)),
					zap.Error(lerr),
				)
				e.emitAudit(ctx, auditEventRemoteLogoutFailure, false, "", "", session.TokenPrefix(bearer), lerr, nil)
			}
		}
	}

	if err := e.store.Clear(ctx); err != nil {
		e.emitAudit(ctx, auditEventLogout, false, "", "", "", err, nil)
		return err
	}
	e.metricInc(MetricSessionCleared)
	e.metricInc(MetricLogout)

	if email, err := e.store.CurrentEmail(ctx); err == nil && email != "" {
		e.metricInc(MetricForcedCleanup)
		e.emitAudit(ctx, auditEventForceClean, true, "", email, "", nil, nil)
		if err := e.store.ForceCleanAll(ctx); err != nil {
			return err
		}
	}

	e.emitAudit(ctx, auditEventLogout, true, "", "", "", nil, nil)
	return nil
}
