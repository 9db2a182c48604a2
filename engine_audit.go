package autologin

import (
	"context"
	"errors"

	"github.com/elgranjm3000/controlagenda-sub000/session"
)

const (
	auditEventMissingToken        = "autologin_missing_token"
	auditEventDuplicateSuppressed = "autologin_duplicate_suppressed"
	auditEventTokenInvalid        = "autologin_token_invalid"
	auditEventConnectionError     = "autologin_connection_error"
	auditEventLoginRejected       = "autologin_login_rejected"
	auditEventSuccess             = "autologin_success"
	auditEventPostSaveMismatch    = "autologin_post_save_mismatch"
	auditEventRemoteLogoutFailure = "remote_logout_failure"
	auditEventSessionCleared      = "session_cleared"
	auditEventForceClean          = "session_force_clean"
	auditEventNotConverged        = "session_not_converged"
	auditEventLogout              = "logout"
)

// AuditErrorCode defines a public type used by autologin APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrTokenMissing     AuditErrorCode = "missing_token"
	auditErrTokenInvalid     AuditErrorCode = "invalid_token"
	auditErrLoginRejected    AuditErrorCode = "login_rejected"
	auditErrConnection       AuditErrorCode = "connection_error"
	auditErrStoreUnavailable AuditErrorCode = "store_unavailable"
	auditErrNotConverged     AuditErrorCode = "store_not_converged"
	auditErrPostSaveMismatch AuditErrorCode = "post_save_mismatch"
	auditErrInFlight         AuditErrorCode = "reconcile_in_flight"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	attemptID string,
	email string,
	tokenPrefix string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadata["user_agent"] = ua
	}

	event := AuditEvent{
		Timestamp:   e.clock.Now().UTC(),
		EventType:   eventType,
		AttemptID:   attemptID,
		Email:       email,
		TokenPrefix: tokenPrefix,
		IP:          clientIPFromContext(ctx),
		Success:     success,
		Metadata:    metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrTokenMissing):
		return auditErrTokenMissing
	case errors.Is(err, ErrTokenInvalid):
		return auditErrTokenInvalid
	case errors.Is(err, ErrLoginRejected):
		return auditErrLoginRejected
	case errors.Is(err, ErrStoreNotConverged):
		return auditErrNotConverged
	case errors.Is(err, ErrPostSaveMismatch):
		return auditErrPostSaveMismatch
	case errors.Is(err, ErrReconcileInFlight):
		return auditErrInFlight
	case errors.Is(err, session.ErrStoreUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, ErrConnectionFailed):
		return auditErrConnection
	default:
		return auditErrInternal
	}
}
