// Package services defines shared utilities consumed by the backend client,
// the live update pipeline, and the presentation layers.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, operation names, and correlation
//     identifiers for logging and request tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     (network, timeout, HTTP, validation, channel) so callers can decide
//     between degrading to last-known state and surfacing an inline message.
//
// Use these helpers when wiring new backend calls so operational behaviour
// (error handling, observability) stays uniform across the console.
package services
