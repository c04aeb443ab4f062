// Package main runs idconsoled, the browser-facing console server.
//
// The daemon loads the shared configuration, logs readiness check failures,
// and serves the localized web console until interrupted.
package main
