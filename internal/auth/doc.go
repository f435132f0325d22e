// Package auth provides bearer-token authentication for the admin API.
//
// Tokens are HS256-signed JWTs carrying a "sub" claim. RequireAdmin wraps
// handlers so invalid or missing tokens are rejected with a 401 before any
// business logic runs; the authenticated subject is available from the
// request context via SubjectFromContext.
package auth
