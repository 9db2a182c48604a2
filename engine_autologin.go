package autologin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/elgranjm3000/controlagenda-sub000/internal"
	"github.com/elgranjm3000/controlagenda-sub000/session"
)

// Reconcile runs one auto-login reconciliation for an inbound one-time
// token and returns the terminal redirect Result. It never returns a
// partial outcome: every remote or store failure converts to a
// redirect-login Result, and the only error returns are the entry guards
// ([ErrEngineNotReady], [ErrReconcileInFlight]).
//
// At most one reconciliation runs per Engine; a concurrent trigger is
// dropped, not queued. Reconcile holds the store's single-writer role for
// its whole duration.
//
//	Docs: docs/flows.md#auto-login
func (e *Engine) Reconcile(ctx context.Context, token string) (*Result, error) {
	if e == nil || e.store == nil || e.api == nil {
		return nil, ErrEngineNotReady
	}

	if !e.inFlight.CompareAndSwap(false, true) {
		e.metricInc(MetricReconcileDropped)
		return nil, ErrReconcileInFlight
	}
	defer func() {
		e.setPhase(PhaseIdle)
		e.inFlight.Store(false)
	}()

	if e.metrics.LatencyEnabled() {
		start := e.clock.Now()
		defer func() {
			e.metrics.Observe(MetricReconcileLatency, e.clock.Since(start))
		}()
	}

	attemptID := internal.NewAttemptID()
	e.metricInc(MetricReconcileStarted)

	token = strings.TrimSpace(token)
	prefix := session.TokenPrefix(token)

	if token == "" {
		e.metricInc(MetricMissingToken)
		e.emitAudit(ctx, auditEventMissingToken, false, attemptID, "", "", ErrTokenMissing, nil)
		return &Result{
			Redirect:  RedirectLogin,
			Status:    StatusMissingToken,
			Delay:     e.config.Reconciler.LoginRedirectDelay,
			Cause:     ErrTokenMissing,
			AttemptID: attemptID,
		}, nil
	}

	if res := e.suppressDuplicate(ctx, token, attemptID); res != nil {
		return res, nil
	}

	e.setPhase(PhaseValidating)
	validation, err := e.api.ValidateTemporaryToken(ctx, token)
	if err != nil {
		return e.connectionFailure(ctx, attemptID, "", prefix, err), nil
	}
	if validation == nil || !validation.Valid {
		e.metricInc(MetricInvalidToken)
		e.emitAudit(ctx, auditEventTokenInvalid, false, attemptID, "", prefix, ErrTokenInvalid, nil)
		return &Result{
			Redirect:  RedirectLogin,
			Status:    StatusInvalidToken,
			Delay:     e.config.Reconciler.LoginRedirectDelay,
			Cause:     ErrTokenInvalid,
			AttemptID: attemptID,
		}, nil
	}
	targetEmail := validation.Email

	e.setPhase(PhaseReconciling)
	if res := e.prepareStore(ctx, targetEmail, attemptID, prefix); res != nil {
		return res, nil
	}

	e.setPhase(PhaseLoggingIn)
	login, err := e.api.Login(ctx, targetEmail, validation.TempPassword)
	if err != nil {
		return e.connectionFailure(ctx, attemptID, targetEmail, prefix, err), nil
	}
	if login == nil || !login.Success {
		reason := ""
		if login != nil {
			reason = login.Message
		}
		e.metricInc(MetricLoginRejected)
		e.emitAudit(ctx, auditEventLoginRejected, false, attemptID, targetEmail, prefix, ErrLoginRejected, func() map[string]string {
			if reason == "" {
				return nil
			}
			return map[string]string{"reason": reason}
		})
		return &Result{
			Redirect:  RedirectLogin,
			Status:    StatusLoginRejected,
			Email:     targetEmail,
			Reason:    reason,
			Delay:     e.config.Reconciler.FailureRedirectDelay,
			Cause:     ErrLoginRejected,
			AttemptID: attemptID,
		}, nil
	}

	e.setPhase(PhaseSaving)
	record := &session.Session{
		Token:     login.Token,
		Email:     targetEmail,
		User:      login.User,
		CreatedAt: e.clock.Now().UnixMilli(),
	}
	if err := e.store.Save(ctx, record); err != nil {
		return e.connectionFailure(ctx, attemptID, targetEmail, prefix, err), nil
	}
	e.metricInc(MetricSessionSaved)

	if err := e.store.MarkProcessedToken(ctx, token); err != nil {
		// The marker only suppresses replays of the same deep link. Losing
		// it costs one extra validation round-trip, not correctness.
		e.logger.Warn("failed to mark processed token", zap.Error(err))
	}

	if res := e.verifySaved(ctx, targetEmail, attemptID, prefix); res != nil {
		return res, nil
	}

	e.metricInc(MetricReconcileSuccess)
	e.emitAudit(ctx, auditEventSuccess, true, attemptID, targetEmail, prefix, nil, nil)
	e.setPhase(PhaseDone)

	return &Result{
		Redirect:  RedirectDashboard,
		Status:    StatusSuccess,
		Email:     targetEmail,
		Delay:     e.config.Reconciler.DashboardRedirectDelay,
		AttemptID: attemptID,
	}, nil
}

// suppressDuplicate short-circuits an exact replay of the last processed
// token while a session is still present. Marker reads are best-effort: a
// store failure here falls through to the full flow rather than failing.
func (e *Engine) suppressDuplicate(ctx context.Context, token, attemptID string) *Result {
	last, err := e.store.LastProcessedToken(ctx)
	if err != nil || last == "" || last != token {
		return nil
	}

	verified, err := e.store.Verify(ctx, "")
	if err != nil || !verified.Exists {
		return nil
	}

	if e.config.Reconciler.CheckBearerExpiry {
		if bearer, berr := e.store.Token(ctx); berr == nil && bearer != "" {
			if exp, ok := bearerExpiry(bearer); ok && !exp.After(e.clock.Now()) {
				return nil
			}
		}
	}

	e.metricInc(MetricDuplicateSuppressed)
	e.emitAudit(ctx, auditEventDuplicateSuppressed, true, attemptID, verified.Email, session.TokenPrefix(token), nil, nil)

	return &Result{
		Redirect:  RedirectDashboard,
		Status:    StatusAlreadyActive,
		Email:     verified.Email,
		Delay:     e.config.Reconciler.DashboardRedirectDelay,
		AttemptID: attemptID,
	}
}

// prepareStore brings the persisted record to the empty state required
// before a fresh login. Returns nil when the flow may proceed, or the
// terminal failure Result.
func (e *Engine) prepareStore(ctx context.Context, targetEmail, attemptID, prefix string) *Result {
	verified, err := e.store.Verify(ctx, targetEmail)
	if err != nil {
		return e.connectionFailure(ctx, attemptID, targetEmail, prefix, err)
	}

	if !verified.Exists && !verified.Partial {
		return nil
	}

	if verified.Exists && !verified.EmailMatches {
		// Identity switch: tell the remote side before discarding the old
		// bearer locally. Failure here is logged, never fatal.
		if bearer, berr := e.store.Token(ctx); berr == nil && bearer != "" {
			if lerr := e.api.Logout(ctx, bearer); lerr != nil {
				e.metricInc(MetricRemoteLogoutFailure)
				e.logger.Warn("remote logout failed during identity switch",
					zap.String("previous_email", verified.Email),
					zap.Error(lerr),
				)
				e.emitAudit(ctx, auditEventRemoteLogoutFailure, false, attemptID, verified.Email, prefix, lerr, nil)
			}
		}
	}

	return e.clearAndConfirm(ctx, targetEmail, attemptID, prefix)
}

// clearAndConfirm clears the record and confirms by read-back, escalating
// to ForceCleanAll up to the configured retries when the record survives.
func (e *Engine) clearAndConfirm(ctx context.Context, targetEmail, attemptID, prefix string) *Result {
	if err := e.store.Clear(ctx); err != nil {
		return e.connectionFailure(ctx, attemptID, targetEmail, prefix, err)
	}
	e.metricInc(MetricSessionCleared)
	e.emitAudit(ctx, auditEventSessionCleared, true, attemptID, targetEmail, prefix, nil, nil)
	e.settle()

	residual, err := e.store.CurrentEmail(ctx)
	if err != nil {
		return e.connectionFailure(ctx, attemptID, targetEmail, prefix, err)
	}
	if residual == "" {
		return nil
	}

	for attempt := 1; attempt <= e.config.Reconciler.CleanupRetries; attempt++ {
		e.metricInc(MetricForcedCleanup)
		e.emitAudit(ctx, auditEventForceClean, true, attemptID, residual, prefix, nil, func() map[string]string {
			return map[string]string{"attempt": fmt.Sprintf("%d", attempt)}
		})

		if err := e.store.ForceCleanAll(ctx); err != nil {
			return e.connectionFailure(ctx, attemptID, targetEmail, prefix, err)
		}
		e.settle()

		residual, err = e.store.CurrentEmail(ctx)
		if err != nil {
			return e.connectionFailure(ctx, attemptID, targetEmail, prefix, err)
		}
		if residual == "" {
			return nil
		}
	}

	e.metricInc(MetricStoreNotConverged)
	e.logger.Error("session store did not converge after forced cleanup",
		zap.String("residual_email", residual),
		zap.Int("retries", e.config.Reconciler.CleanupRetries),
	)
	e.emitAudit(ctx, auditEventNotConverged, false, attemptID, residual, prefix, ErrStoreNotConverged, nil)

	return &Result{
		Redirect:  RedirectLogin,
		Status:    StatusConnectionError,
		Delay:     e.config.Reconciler.FailureRedirectDelay,
		Cause:     ErrStoreNotConverged,
		AttemptID: attemptID,
	}
}

// verifySaved checks the post-save invariant: the stored email must equal
// the reconciled identity. Log-only by default; fatal under
// StrictPostSaveVerify.
func (e *Engine) verifySaved(ctx context.Context, targetEmail, attemptID, prefix string) *Result {
	stored, err := e.store.CurrentEmail(ctx)
	if err == nil && stored == targetEmail {
		return nil
	}

	e.metricInc(MetricPostSaveMismatch)
	e.logger.Warn("persisted session does not match reconciled identity",
		zap.String("expected", targetEmail),
		zap.String("stored", stored),
		zap.Error(err),
	)
	e.emitAudit(ctx, auditEventPostSaveMismatch, false, attemptID, targetEmail, prefix, ErrPostSaveMismatch, func() map[string]string {
		return map[string]string{"stored_email": stored}
	})

	if !e.config.Reconciler.StrictPostSaveVerify {
		return nil
	}

	return &Result{
		Redirect:  RedirectLogin,
		Status:    StatusConnectionError,
		Email:     targetEmail,
		Delay:     e.config.Reconciler.FailureRedirectDelay,
		Cause:     ErrPostSaveMismatch,
		AttemptID: attemptID,
	}
}

func (e *Engine) connectionFailure(ctx context.Context, attemptID, email, prefix string, cause error) *Result {
	e.metricInc(MetricConnectionError)
	wrapped := cause
	if !errors.Is(cause, ErrConnectionFailed) && !errors.Is(cause, session.ErrStoreUnavailable) {
		wrapped = fmt.Errorf("%w: %v", ErrConnectionFailed, cause)
	}
	e.emitAudit(ctx, auditEventConnectionError, false, attemptID, email, prefix, wrapped, nil)

	return &Result{
		Redirect:  RedirectLogin,
		Status:    StatusConnectionError,
		Email:     email,
		Delay:     e.config.Reconciler.FailureRedirectDelay,
		Cause:     wrapped,
		AttemptID: attemptID,
	}
}

func (e *Engine) settle() {
	if d := e.config.Reconciler.SettleDelay; d > 0 {
		e.clock.Sleep(d)
	}
}
