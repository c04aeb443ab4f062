// Package session tracks who is signed in.
//
// Store holds the current profile (nil means signed out) and notifies
// subscribers on change. Manager ties the store to the backend: Init and
// Refresh consult whoami, Login establishes a session, and Logout always
// clears local state even when the backend call fails.
//
// Jar is the CLI's stand-in for a browser cookie store. It keeps the
// backend's session and CSRF cookies in a 0600 JSON file guarded by a file
// lock so concurrent invocations do not clobber each other.
package session
