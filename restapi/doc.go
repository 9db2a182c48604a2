// Package restapi is the net/http implementation of [autologin.AccountAPI]
// against the CRM back-end.
//
// The wire contract is fixed: token validation is a form-encoded POST to
// /validate-temporary-token, login a JSON POST to /login, logout a bearer
// POST to /logout. Endpoints beyond this contract are out of scope.
package restapi
