// Package model defines the value, row and key primitives shared by the
// index and view layers.
//
// A Value is an immutable typed scalar, a Row is a shared handle to an
// immutable tuple of Values, and a Bag is a duplicate-counting multiset of
// Rows. PointKey and RangeKey address lookups independently of how a backing
// store represents keys internally.
package model
