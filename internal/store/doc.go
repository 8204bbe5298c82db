// Package store holds every submitted trace for the lifetime of the
// process.
//
// The store is append-only: traces are never overwritten, updated, or
// evicted. An incoming trace whose ID is already present gets its ID
// rewritten with a base36 timestamp suffix before insertion, so duplicate
// submissions yield two distinct entries. A single mutex serializes the
// existence check and the insert; without it two concurrent appends with
// the same ID could both pass the check.
//
// State is volatile and resets on restart. A production variant would need
// eviction and durability; both are out of scope here.
package store
