// Package catalog provides the course index: an identifier-keyed view over a
// loaded set of course records.
//
// # Lifecycle
//
// An Index is built once per load and never mutated afterwards:
//  1. **Build:** a source hands over its records; Build normalises identifiers
//     and keys each record by them (last write wins on duplicates).
//  2. **Query:** Lookup, Count and the listing helpers are read-only and safe
//     for concurrent use.
//  3. **Replace:** a reload builds a fresh Index; Current publishes it with a
//     single pointer swap so readers never observe a half-built index.
//
// Callers only ever receive copies of the stored records.
package catalog
