// Package web serves the server-rendered console.
//
// Every page lives under a locale prefix (/en/..., /fr/...). Unsupported or
// missing prefixes redirect to the locale cookie, the browser's
// Accept-Language preference, or the configured default. The browser's
// backend cookies are forwarded to a per-request backend client and any
// cookies the backend sets are relayed back, so the console itself holds no
// session state. Job pages refresh on the live poll interval while any job
// is still queued or running.
package web
