// Package session provides the Redis-backed persistent record of the single
// authenticated identity used by the auto-login reconciliation engine.
//
// # Record shape
//
// The record is stored under a configurable key prefix as individual keys
// (auth_token, user_email, user) plus a composite JSON blob (user_session)
// for tooling that wants the whole record at once. Writes are full
// replacements inside one MULTI/EXEC so no observer ever sees a partially
// written record; Clear removes the whole key set in one transaction.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model.
// It does NOT validate tokens, call the remote API, or decide what a stale
// record means — those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import the root package or restapi (no upward imports).
//   - Interpret the User payload; it is stored and returned verbatim.
//   - Log full credentials. Only [TokenPrefix] values may leave the store.
package session
