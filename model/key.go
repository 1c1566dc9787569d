package model

import (
	"strings"
)

// PointKey is an exact lookup key: a tuple of Values whose arity matches the
// index it addresses. The empty key (arity 0) addresses "all rows".
type PointKey []Value

// KeyOf builds a key from the given values.
func KeyOf(vals ...Value) PointKey { return PointKey(vals) }

// Arity returns the number of key columns.
func (k PointKey) Arity() int { return len(k) }

// Cmp compares two keys lexicographically by Value.Cmp. A shorter key that
// is a prefix of a longer one sorts first; in practice keys compared against
// each other always share one arity.
func (k PointKey) Cmp(o PointKey) int {
	n := min(len(k), len(o))
	for i := 0; i < n; i++ {
		if c := k[i].Cmp(o[i]); c != 0 {
			return c
		}
	}
	return cmpOrdered(len(k), len(o))
}

// Equal reports content equality.
func (k PointKey) Equal(o PointKey) bool {
	if len(k) != len(o) {
		return false
	}
	for i := range k {
		if !k[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Encode returns the key's injective encoding, used as hashed-backing map
// key material.
func (k PointKey) Encode() string { return string(EncodeTuple(nil, k)) }

// Clone returns a copy of the key. Values are immutable, so a shallow copy
// of the tuple suffices.
func (k PointKey) Clone() PointKey {
	cp := make(PointKey, len(k))
	copy(cp, k)
	return cp
}

// String returns a readable representation for logs and test failures.
func (k PointKey) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, v := range k {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// BoundKind says how a Bound delimits a range.
type BoundKind uint8

const (
	// BoundUnbounded extends the range to infinity on its side.
	BoundUnbounded BoundKind = iota
	// BoundIncluded includes the endpoint key in the range.
	BoundIncluded
	// BoundExcluded excludes the endpoint key from the range.
	BoundExcluded
)

// Bound is one endpoint of a RangeKey.
type Bound struct {
	Kind BoundKind
	Key  PointKey // unset when Kind is BoundUnbounded
}

// Unbounded returns the infinite bound.
func Unbounded() Bound { return Bound{Kind: BoundUnbounded} }

// Included returns a closed bound at key.
func Included(key PointKey) Bound { return Bound{Kind: BoundIncluded, Key: key} }

// Excluded returns an open bound at key.
func Excluded(key PointKey) Bound { return Bound{Kind: BoundExcluded, Key: key} }

// String returns the endpoint in interval notation fragments.
func (b Bound) String() string {
	switch b.Kind {
	case BoundUnbounded:
		return "∞"
	case BoundIncluded:
		return "=" + b.Key.String()
	default:
		return "≠" + b.Key.String()
	}
}

// RangeKey addresses a contiguous region of key-space by a pair of bounds.
type RangeKey struct {
	Lower Bound
	Upper Bound
}

// FullRange covers the entire key-space.
func FullRange() RangeKey {
	return RangeKey{Lower: Unbounded(), Upper: Unbounded()}
}

// PointRange covers exactly one key.
func PointRange(key PointKey) RangeKey {
	return RangeKey{Lower: Included(key), Upper: Included(key)}
}

// Contains reports whether key falls within the range.
func (r RangeKey) Contains(key PointKey) bool {
	return r.Lower.admitsFromBelow(key) && r.Upper.admitsFromAbove(key)
}

// Empty reports whether no key can satisfy the range.
func (r RangeKey) Empty() bool {
	if r.Lower.Kind == BoundUnbounded || r.Upper.Kind == BoundUnbounded {
		return false
	}
	c := r.Lower.Key.Cmp(r.Upper.Key)
	if c != 0 {
		return c > 0
	}
	return r.Lower.Kind == BoundExcluded || r.Upper.Kind == BoundExcluded
}

// String returns the range in interval notation.
func (r RangeKey) String() string {
	var sb strings.Builder
	if r.Lower.Kind == BoundIncluded {
		sb.WriteByte('[')
	} else {
		sb.WriteByte('(')
	}
	if r.Lower.Kind == BoundUnbounded {
		sb.WriteString("-∞")
	} else {
		sb.WriteString(r.Lower.Key.String())
	}
	sb.WriteString(", ")
	if r.Upper.Kind == BoundUnbounded {
		sb.WriteString("+∞")
	} else {
		sb.WriteString(r.Upper.Key.String())
	}
	if r.Upper.Kind == BoundIncluded {
		sb.WriteByte(']')
	} else {
		sb.WriteByte(')')
	}
	return sb.String()
}

// Encode returns an injective encoding of the range, usable as a
// deduplication key for in-flight range fills.
func (r RangeKey) Encode() string {
	var buf []byte
	buf = append(buf, byte(r.Lower.Kind))
	buf = EncodeTuple(buf, r.Lower.Key)
	buf = append(buf, byte(r.Upper.Kind))
	buf = EncodeTuple(buf, r.Upper.Key)
	return string(buf)
}

// admitsFromBelow reports whether key is at or above a lower bound.
func (b Bound) admitsFromBelow(key PointKey) bool {
	switch b.Kind {
	case BoundUnbounded:
		return true
	case BoundIncluded:
		return key.Cmp(b.Key) >= 0
	default:
		return key.Cmp(b.Key) > 0
	}
}

// admitsFromAbove reports whether key is at or below an upper bound.
func (b Bound) admitsFromAbove(key PointKey) bool {
	switch b.Kind {
	case BoundUnbounded:
		return true
	case BoundIncluded:
		return key.Cmp(b.Key) <= 0
	default:
		return key.Cmp(b.Key) < 0
	}
}
