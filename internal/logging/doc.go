// Package logging assembles structured slog loggers and formatting helpers used
// across idconsole.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so backend calls and live-update
// trackers automatically tag log lines with job IDs, operations, and
// correlation IDs. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape as the rest of the console.
package logging
