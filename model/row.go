package model

import (
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Row is a shared handle to one immutable materialized record: an ordered
// tuple of Values. A single *Row may be referenced by both generations of a
// concurrent map and by any number of readers at once; immutability is what
// makes that sharing safe without synchronization.
//
// Rows compare by content, never by identity.
type Row struct {
	vals []Value
	enc  string // injective content encoding, computed once
}

// NewRow builds a row from the given values. The slice is copied.
func NewRow(vals ...Value) *Row {
	cp := make([]Value, len(vals))
	copy(cp, vals)
	return &Row{vals: cp, enc: string(EncodeTuple(nil, cp))}
}

// Len returns the number of columns.
func (r *Row) Len() int { return len(r.vals) }

// ValueAt returns the value in column i.
func (r *Row) ValueAt(i int) Value { return r.vals[i] }

// Values returns the row's values. Callers must treat the slice as read-only.
func (r *Row) Values() []Value { return r.vals }

// Equal reports content equality with another row.
func (r *Row) Equal(o *Row) bool {
	if r == o {
		return true
	}
	if r == nil || o == nil {
		return false
	}
	return r.enc == o.enc
}

// Hash returns a 64-bit content hash of the row.
func (r *Row) Hash() uint64 { return xxhash.Sum64String(r.enc) }

// Project derives the key for this row under the given column positions.
// Panics if a column position is out of range: that is an index-definition
// bug, not a data condition.
func (r *Row) Project(cols []int) PointKey {
	key := make(PointKey, len(cols))
	for i, c := range cols {
		key[i] = r.vals[c]
	}
	return key
}

// contentKey returns the injective encoding used to key multiset entries.
func (r *Row) contentKey() string { return r.enc }

// String returns a readable representation for logs and test failures.
func (r *Row) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range r.vals {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// EncodeTuple appends an injective encoding of a value tuple to buf:
// a count prefix followed by each value's encoding. Equal tuples produce
// equal encodings and vice versa.
func EncodeTuple(buf []byte, vals []Value) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(vals)))
	for _, v := range vals {
		buf = v.AppendEncode(buf)
	}
	return buf
}
