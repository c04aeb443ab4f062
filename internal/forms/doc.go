// Package forms validates console input before it reaches the backend.
//
// Validation uses go-playground/validator struct tags on the api request
// types and maps failures to stable codes (required, too_short,
// missing_file, ...) that the CLI and web console localize. Upload checks
// run before any network call, so an empty or missing file never leaves the
// machine.
package forms
