// Package vapi is the client for the external Vapi assistant API.
//
// The client holds no credentials: the private key lives in the settings
// record and is supplied per call. An empty key short-circuits to
// ErrMissingCredential without any network traffic.
//
// Assistants decode loosely (a map with accessors) because the upstream
// schema is not ours to pin. Updates go out as minimal PATCH bodies: only
// the fields the admin supplied, with the model object included only when a
// system prompt is present and provider/model carried over from the fetched
// assistant rather than invented.
package vapi
