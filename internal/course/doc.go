// Package course defines the Course record, the immutable value that every
// catalog source produces and the prerequisite engine consumes.
//
// Identifiers are normalised on construction (trimmed and upper-cased) so that
// lookups elsewhere in the application can be case- and whitespace-insensitive
// without repeating the rule.
package course
