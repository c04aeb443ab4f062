// Package live keeps non-terminal jobs fresh.
//
// Each tracked job has two producers: a push producer reading the job's
// WebSocket channel and a poll producer refetching the job detail on a fixed
// interval. Both send into a single consumer goroutine, the only place that
// calls jobs.Store.Apply. Updates therefore land in arrival order
// (last-write-wins), and when the consumer applies a terminal record it
// closes that job's tracker in the same step so no later fetch for the id is
// started or applied.
//
// Reconcile aligns trackers with a job set and session state, Run keeps the
// pipeline aligned with the store until its context ends, and Stop tears
// everything down synchronously.
package live
