// Package jobs holds the locally known set of identify jobs.
//
// The Store merges incremental updates by job id while preserving insertion
// order, and exposes a sorted read model (most recently updated first) that is
// recomputed on every read. Apply and ReplaceAll are the only mutators; live
// update producers and presentation code read concurrently through Sorted,
// Snapshot, and Get. Subscribe delivers coalesced change notifications so
// renderers can redraw without polling the store.
package jobs
