// Package notifications publishes finished-job alerts to ntfy.
//
// NewService returns a no-op when no topic is configured, so callers can
// always wire a Service. Follow watches a job store and reports each job the
// moment it leaves the live states.
package notifications
