// Package logs reads the console's own log files.
//
// Last returns the newest matching lines with bounded memory, and Follow
// streams lines appended afterwards until its context ends. Both understand
// the JSON and console formats written by the logging package, so callers
// can filter by job id or minimum level without knowing which format a file
// uses.
package logs
