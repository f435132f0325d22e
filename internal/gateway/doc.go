// Package gateway is the HTTP surface of vapi-gateway.
//
// # Overview
//
// The Gateway struct wires the settings service, the Vapi API client, and
// the token verifier to an http.ServeMux. Two classes of route exist:
//
//   - Public: GET /vapi/v1/config serves the widget configuration to the
//     anonymous embed loader, and GET /healthz is a liveness check.
//   - Admin: everything under /api requires a bearer token and answers in
//     the {"success": bool, "data": ...} envelope.
//
// # Admin API
//
//   - GET  /api/settings          - full record (includes the private key)
//   - POST /api/settings/{tab}    - merge-save one tab's fields
//   - POST /api/settings/export   - record as a JSON attachment
//   - POST /api/settings/import   - multipart upload replacing the record
//   - POST /api/settings/reset    - wipe and reinitialize defaults
//   - POST /api/assistants/fetch  - proxied assistant listing
//   - POST /api/assistants/update - proxied assistant PATCH
//
// # Tab Scoping
//
// tabFields pins each save endpoint to the option keys its admin tab owns.
// A request for one tab cannot touch another tab's fields, which keeps the
// merge-save property safe even against malformed clients.
//
// # Error Mapping
//
// Proxy failures map onto HTTP statuses in sendProxyError: missing
// credential or assistant id is a 400 before any upstream call, upstream
// statuses pass through unchanged, and transport or shape problems become a
// generic 500 so upstream internals never leak to the admin UI.
package gateway
