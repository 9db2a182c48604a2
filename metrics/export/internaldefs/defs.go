package internaldefs

import (
	autologin "github.com/elgranjm3000/controlagenda-sub000"
)

// CounterDef defines a public type used by autologin APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   autologin.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by autologin APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   autologin.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the reconciliation engine.
var CounterDefs = []CounterDef{
	{ID: autologin.MetricReconcileStarted, Name: "autologin_reconcile_started_total", Help: "Reconciliation attempts admitted past the entry guard."},
	{ID: autologin.MetricReconcileSuccess, Name: "autologin_reconcile_success_total", Help: "Reconciliations that ended at the dashboard redirect."},
	{ID: autologin.MetricReconcileDropped, Name: "autologin_reconcile_dropped_total", Help: "Concurrent reconciliation triggers dropped by the re-entrancy guard."},
	{ID: autologin.MetricMissingToken, Name: "autologin_missing_token_total", Help: "Reconciliations triggered without a token."},
	{ID: autologin.MetricInvalidToken, Name: "autologin_invalid_token_total", Help: "Temporary tokens rejected by remote validation."},
	{ID: autologin.MetricConnectionError, Name: "autologin_connection_error_total", Help: "Reconciliations failed by remote or store unavailability."},
	{ID: autologin.MetricLoginRejected, Name: "autologin_login_rejected_total", Help: "Credential logins rejected by the remote API."},
	{ID: autologin.MetricDuplicateSuppressed, Name: "autologin_duplicate_suppressed_total", Help: "Token replays short-circuited without a remote round-trip."},
	{ID: autologin.MetricSessionSaved, Name: "autologin_session_saved_total", Help: "Session records persisted."},
	{ID: autologin.MetricSessionCleared, Name: "autologin_session_cleared_total", Help: "Session records cleared."},
	{ID: autologin.MetricForcedCleanup, Name: "autologin_forced_cleanup_total", Help: "ForceCleanAll escalations after a non-converging clear."},
	{ID: autologin.MetricStoreNotConverged, Name: "autologin_store_not_converged_total", Help: "Cleanups that exhausted retries with a residual record."},
	{ID: autologin.MetricPostSaveMismatch, Name: "autologin_post_save_mismatch_total", Help: "Post-save read-backs that did not match the reconciled identity."},
	{ID: autologin.MetricRemoteLogoutFailure, Name: "autologin_remote_logout_failure_total", Help: "Best-effort remote logouts that failed."},
	{ID: autologin.MetricLogout, Name: "autologin_logout_total", Help: "Explicit logout operations."},
}

// HistogramDefs is an exported constant or variable used by the reconciliation engine.
var HistogramDefs = []HistogramDef{
	{ID: autologin.MetricReconcileLatency, Name: "autologin_reconcile_latency_seconds", Help: "Reconciliation latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the reconciliation engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the reconciliation engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
