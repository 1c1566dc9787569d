package model

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Kind identifies the type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindBytes
	KindTime
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is an immutable typed scalar: one column value of a materialized row.
//
// Values are comparable (a total order across kinds), hashable and have an
// injective byte encoding suitable for use as map key material. The zero
// Value is Null.
type Value struct {
	kind Kind
	n    int64 // bool (0/1), int, time (unix micros)
	f    float64
	s    string // text
	b    []byte // bytes
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool returns a boolean Value.
func Bool(v bool) Value {
	var n int64
	if v {
		n = 1
	}
	return Value{kind: KindBool, n: n}
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{kind: KindInt, n: v} }

// Float returns a floating-point Value. Negative zero and all NaN bit
// patterns are canonicalized so Equal values encode and hash identically.
func Float(v float64) Value {
	switch {
	case v == 0:
		v = 0 // collapse -0
	case math.IsNaN(v):
		v = math.NaN()
	}
	return Value{kind: KindFloat, f: v}
}

// Text returns a string Value.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Bytes returns a binary Value. The input is copied.
func Bytes(v []byte) Value {
	b := make([]byte, len(v))
	copy(b, v)
	return Value{kind: KindBytes, b: b}
}

// Time returns a timestamp Value with microsecond precision, stored in UTC.
func Time(t time.Time) Value { return Value{kind: KindTime, n: t.UTC().UnixMicro()} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload. Valid only for KindBool.
func (v Value) AsBool() bool { return v.n != 0 }

// AsInt returns the integer payload. Valid only for KindInt.
func (v Value) AsInt() int64 { return v.n }

// AsFloat returns the float payload. Valid only for KindFloat.
func (v Value) AsFloat() float64 { return v.f }

// AsText returns the string payload. Valid only for KindText.
func (v Value) AsText() string { return v.s }

// AsBytes returns the binary payload. Callers must treat it as read-only.
func (v Value) AsBytes() []byte { return v.b }

// AsTime returns the timestamp payload. Valid only for KindTime.
func (v Value) AsTime() time.Time { return time.UnixMicro(v.n).UTC() }

// kindRank groups Int and Float into one numeric rank so that numerics
// compare cross-kind by magnitude. Everything else orders by kind tag.
func (v Value) kindRank() int {
	switch v.kind {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt, KindFloat:
		return 2
	case KindText:
		return 3
	case KindBytes:
		return 4
	case KindTime:
		return 5
	}
	panic(fmt.Sprintf("lacuna/model: invalid value kind %d", v.kind))
}

// Cmp returns -1, 0 or +1 comparing v against o under the total order
// null < bool < numeric < text < bytes < time. Int and Float compare by
// numeric magnitude; numerically equal values of different kinds order
// Int before Float so the order stays strict. NaN sorts below every other
// numeric and equal to itself, keeping the order total.
func (v Value) Cmp(o Value) int {
	if r, or := v.kindRank(), o.kindRank(); r != or {
		return cmpOrdered(r, or)
	}
	switch v.kind {
	case KindNull:
		return 0
	case KindBool, KindTime:
		return cmpOrdered(v.n, o.n)
	case KindInt, KindFloat:
		return cmpNumeric(v, o)
	case KindText:
		return cmpOrdered(v.s, o.s)
	case KindBytes:
		return bytes.Compare(v.b, o.b)
	}
	panic(fmt.Sprintf("lacuna/model: invalid value kind %d", v.kind))
}

// Equal reports content equality: same kind and same payload.
// Note Int(1) and Float(1) are not Equal even though they compare adjacent.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.Cmp(o) == 0
}

// Hash returns a 64-bit content hash of the value.
func (v Value) Hash() uint64 {
	return xxhash.Sum64(v.AppendEncode(nil))
}

// AppendEncode appends an injective encoding of the value to buf.
// Two values produce the same encoding iff they are Equal. The encoding is
// not order-preserving; ordered backings compare decoded values directly.
func (v Value) AppendEncode(buf []byte) []byte {
	buf = append(buf, byte(v.kind))
	switch v.kind {
	case KindNull:
	case KindBool, KindInt, KindTime:
		buf = binary.BigEndian.AppendUint64(buf, uint64(v.n))
	case KindFloat:
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v.f))
	case KindText:
		buf = binary.AppendUvarint(buf, uint64(len(v.s)))
		buf = append(buf, v.s...)
	case KindBytes:
		buf = binary.AppendUvarint(buf, uint64(len(v.b)))
		buf = append(buf, v.b...)
	default:
		panic(fmt.Sprintf("lacuna/model: invalid value kind %d", v.kind))
	}
	return buf
}

// String returns a readable representation for logs and test failures.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return strconv.FormatBool(v.n != 0)
	case KindInt:
		return strconv.FormatInt(v.n, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return strconv.Quote(v.s)
	case KindBytes:
		return fmt.Sprintf("x%x", v.b)
	case KindTime:
		return v.AsTime().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("value(kind=%d)", uint8(v.kind))
	}
}

func cmpOrdered[T int | int64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpNumeric(a, b Value) int {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return cmpOrdered(a.n, b.n)
	case a.kind == KindInt:
		if math.IsNaN(b.f) {
			return 1
		}
		if c := cmpIntFloat(a.n, b.f); c != 0 {
			return c
		}
		return -1 // numerically equal: Int sorts before Float
	case b.kind == KindInt:
		if math.IsNaN(a.f) {
			return -1
		}
		if c := cmpIntFloat(b.n, a.f); c != 0 {
			return -c
		}
		return 1
	}
	af, bf := a.f, b.f
	if an, bn := math.IsNaN(af), math.IsNaN(bf); an || bn {
		switch {
		case an && bn:
			return 0
		case an:
			return -1
		default:
			return 1
		}
	}
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	return 0
}

// cmpIntFloat compares an int64 with a non-NaN float64 exactly. Widening
// the int to float64 would round above 2^53 and make distinct values tie.
func cmpIntFloat(i int64, f float64) int {
	const lim = 1 << 63 // exact as float64
	if f >= lim {
		return -1
	}
	if f < -lim {
		return 1
	}
	ft := math.Trunc(f)
	if fi := int64(ft); i != fi {
		return cmpOrdered(i, fi)
	}
	// Same integer part; only the fraction separates them.
	switch {
	case f > ft:
		return -1
	case f < ft:
		return 1
	}
	return 0
}
