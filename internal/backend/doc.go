// Package backend is the typed HTTP and WebSocket client for the identify/job
// backend.
//
// The client only shapes requests and surfaces errors: every call carries an
// X-Request-ID, state-changing calls echo the CSRF cookie, and responses with
// status 400 or above become *HTTPError values that also match
// services.ErrUnauthorized or services.ErrNotFound where appropriate. Calls
// are bounded by the interactive or upload timeout and never retried.
//
// SubscribeJob opens the per-job push channel at /ws/jobs/{id} and returns a
// Channel whose Next decodes one JSON message at a time.
package backend
