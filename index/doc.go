// Package index implements the partially materialized keyed index at the
// heart of the state layer: a map from fixed-arity keys to row multisets,
// backed by either an ordered tree or a hash map.
//
// Ordered backings additionally track which contiguous regions of key-space
// are filled, so a range lookup can distinguish "no rows" from "not yet
// materialized" and report the exact uncovered sub-ranges for the caller to
// fill. Hashed backings support point access only; there the presence of a
// key is its fill state.
//
// Arity mismatches and range operations against a hashed backing are caller
// bugs, not runtime conditions, and panic.
package index
