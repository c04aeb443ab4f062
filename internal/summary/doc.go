// Package summary turns an identify job into a few human-facing lines.
//
// Derive is pure: it performs no I/O and returns identical output for
// identical input. An error string short-circuits everything else, live jobs
// show only their localized status, and completed jobs show the top match,
// its score and source, a condensed metadata line, and any secondary
// provider diagnostics.
package summary
