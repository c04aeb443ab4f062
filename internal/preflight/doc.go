// Package preflight provides readiness checks for the backend, the local
// directories the console writes into, and the translation tables.
//
// These checks run in two contexts:
//   - idconsoled calls RunAll at startup and logs every failed check.
//   - The CLI "idconsole doctor" command renders the same results as a table.
package preflight
