// Package ir provides the canonical serialization and content hashing shared
// by compiled requests, AST snapshots and validation runs.
//
// Values handed to MarshalCanonical are plain Go trees: maps with string
// keys, slices, strings, integers and bools. Floats and nulls are rejected so
// that the same logical value always serializes to the same bytes; callers
// render floats as text before marshaling.
//
// ir imports nothing internal.
package ir
