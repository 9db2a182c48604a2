// Package autologin provides a deep-link auto-login reconciliation engine:
// given an inbound one-time token, it validates the token remotely, tears
// down any stale or conflicting persisted session, performs a clean
// credential login, persists the new session, and signals the terminal
// redirect.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build], although at most one reconciliation is admitted at a
// time per Engine.
//
// # Architecture boundaries
//
// autologin is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (Result, MetricsSnapshot, AuditEvent). Session
// persistence lives in the session sub-package; the HTTP implementation of
// [AccountAPI] lives in restapi.
//
// # What this package must NOT do
//
//   - Render UI or perform page navigation; [Result] only names the
//     redirect the host should perform.
//   - Interpret the remote user payload beyond storing it verbatim.
//   - Let an error escape [Engine.Reconcile]: every remote or store
//     failure converts to a terminal redirect result.
//
// # Failure contract
//
// Reconcile never retries automatically. A transport failure surfaces as
// StatusConnectionError, a rejected credential login as
// StatusLoginRejected, and both terminate at the login redirect.
package autologin
