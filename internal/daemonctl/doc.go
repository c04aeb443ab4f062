// Package daemonctl locates and controls a running idconsoled.
//
// The daemon holds an exclusive lock and records its PID in the log
// directory. Status combines the PID check with a /healthz probe of the
// configured bind address; Stop sends SIGTERM and escalates to SIGKILL after
// a grace period.
package daemonctl
