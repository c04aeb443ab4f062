// Package console derives the view models shared by the CLI and the web
// console, and renders them as terminal tables.
package console
