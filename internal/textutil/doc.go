// Package textutil normalizes user-supplied names before they are logged,
// displayed, or forwarded to the backend.
package textutil
