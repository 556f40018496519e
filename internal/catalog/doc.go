// Package catalog implements the in-memory books catalog.
//
// The catalog is a single owned aggregate: a Store created with NewStore
// and passed by reference to the transports that expose it. There is no
// package-level state, so tests get full isolation from fresh instances.
//
// Records are kept in insertion order and identifiers are assigned from a
// monotonically increasing counter, so an identifier is never reissued
// after its record has been deleted.
package catalog
