// Package i18n holds the console's typed message catalog.
//
// Every user-facing string is addressed by a Key constant. Each supported
// locale provides a fixed-size table indexed by Key, so adding a key without
// extending the tables fails to compile once the table literal exceeds its
// bounds, and the completeness test catches entries left empty. Lookups fall
// back to English when a locale table lacks an entry.
//
// Locale selection uses golang.org/x/text/language matching so request
// headers such as "fr-CA,fr;q=0.9" resolve to a supported table.
package i18n
