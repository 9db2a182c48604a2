package autologin

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the reconciliation engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrReconcileInFlight is an exported constant or variable used by the reconciliation engine.
	ErrReconcileInFlight = errors.New("reconciliation already in flight")
	// ErrTokenInvalid is an exported constant or variable used by the reconciliation engine.
	ErrTokenInvalid = errors.New("temporary token invalid")
	// ErrTokenMissing is an exported constant or variable used by the reconciliation engine.
	ErrTokenMissing = errors.New("temporary token missing")
	// ErrLoginRejected is an exported constant or variable used by the reconciliation engine.
	ErrLoginRejected = errors.New("credential login rejected")
	// ErrConnectionFailed is an exported constant or variable used by the reconciliation engine.
	ErrConnectionFailed = errors.New("remote api unreachable")
	// ErrStoreNotConverged is returned when the persisted session survives
	// both Clear and the configured ForceCleanAll retries.
	ErrStoreNotConverged = errors.New("session store did not converge after cleanup")
	// ErrPostSaveMismatch is returned (only under StrictPostSaveVerify) when
	// the email read back after Save differs from the reconciled identity.
	ErrPostSaveMismatch = errors.New("persisted session does not match reconciled identity")
)
