// Package dag holds the read-only graph algorithms over a course index: the
// cycle and existence validator, and the transitive prerequisite chain.
//
// The prerequisite graph is implicit. Nodes are indexed identifiers and edges
// run from a course to each of its prerequisites. Edges may point at
// identifiers that are not indexed; both walkers tolerate that. Neither
// walker recurses, so graph depth is bounded only by memory.
package dag
