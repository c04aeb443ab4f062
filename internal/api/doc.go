// Package api defines the wire-format types exchanged with the identify/job
// backend.
//
// # Key Types
//
// Job: one asynchronous identify request with its status, progress messages,
// optional error, and (once completed) a Result.
//
// Result: ranked Matches plus the backend path that produced them, a flat
// Metadata map, secondary-provider diagnostics, the content fingerprint, and
// the audio duration.
//
// Profile: the authenticated user's identity, role tags, and allowed features.
//
// ChannelMessage: a push message delivered over the per-job WebSocket channel.
//
// # Design Notes
//
// JSON tags follow the backend's snake_case naming. Metadata keeps the key
// order of the decoded JSON object because summary rendering falls back to
// "original order" when preferred keys are exhausted. Nullable backend fields
// are pointers so absent and empty can be told apart.
package api
