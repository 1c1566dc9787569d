package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOrdering(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// Ascending under the total order: null < bool < numeric < text < bytes < time.
	ordered := []Value{
		Null(),
		Bool(false),
		Bool(true),
		Int(-3),
		Int(7),
		Float(7.5),
		Int(8),
		Text("a"),
		Text("ab"),
		Bytes([]byte{0x00}),
		Bytes([]byte{0x00, 0x01}),
		Time(ts),
		Time(ts.Add(time.Second)),
	}

	for i := range ordered {
		for j := range ordered {
			c := ordered[i].Cmp(ordered[j])
			switch {
			case i < j:
				assert.Equal(t, -1, c, "%s vs %s", ordered[i], ordered[j])
			case i > j:
				assert.Equal(t, 1, c, "%s vs %s", ordered[i], ordered[j])
			default:
				assert.Equal(t, 0, c, "%s vs itself", ordered[i])
			}
		}
	}
}

func TestValueNumericCrossKind(t *testing.T) {
	// Int and Float interleave by magnitude; numeric ties break Int first.
	assert.Equal(t, -1, Int(1).Cmp(Float(1.5)))
	assert.Equal(t, 1, Float(2.5).Cmp(Int(2)))
	assert.Equal(t, -1, Int(3).Cmp(Float(3)))
	assert.Equal(t, 1, Float(3).Cmp(Int(3)))

	// Cross-kind numerics are never Equal.
	assert.False(t, Int(3).Equal(Float(3)))
	assert.True(t, Int(3).Equal(Int(3)))
}

func TestValueNaNOrdering(t *testing.T) {
	nan := Float(math.NaN())

	// NaN holds one deterministic position: below every other numeric,
	// equal to itself. Without it a NaN key would compare equal to every
	// float and alias unrelated keys.
	assert.Equal(t, 0, nan.Cmp(Float(math.NaN())))
	assert.True(t, nan.Equal(Float(math.NaN())))
	assert.Equal(t, -1, nan.Cmp(Float(1)))
	assert.Equal(t, 1, Float(1).Cmp(nan))
	assert.Equal(t, -1, nan.Cmp(Float(math.Inf(-1))))
	assert.Equal(t, -1, nan.Cmp(Int(-42)))
	assert.Equal(t, 1, Int(-42).Cmp(nan))

	// Kind ranks still bracket it.
	assert.Equal(t, 1, nan.Cmp(Bool(true)))
	assert.Equal(t, -1, nan.Cmp(Text("")))

	// Every NaN bit pattern is one value: same encoding, same hash.
	signaling := Float(math.Float64frombits(0x7ff0000000000001))
	assert.Equal(t, nan.AppendEncode(nil), signaling.AppendEncode(nil))
	assert.Equal(t, nan.Hash(), signaling.Hash())

	// Negative zero collapses the same way.
	assert.True(t, Float(0).Equal(Float(math.Copysign(0, -1))))
	assert.Equal(t, Float(0).Hash(), Float(math.Copysign(0, -1)).Hash())
}

func TestValueLargeIntFloatExact(t *testing.T) {
	// Above 2^53 a float64 cannot hold every integer; the comparison must
	// not round the int through float64.
	const big = int64(1) << 53
	assert.Equal(t, 1, Int(big+1).Cmp(Float(float64(big))))
	assert.Equal(t, -1, Float(float64(big)).Cmp(Int(big+1)))
	assert.Equal(t, -1, Int(big).Cmp(Float(float64(big))), "exact tie breaks Int first")

	// float64(MaxInt64) rounds up to 2^63, which exceeds every int64.
	assert.Equal(t, -1, Int(math.MaxInt64).Cmp(Float(float64(math.MaxInt64))))
	// MinInt64 is exactly representable; the tie breaks Int first.
	assert.Equal(t, -1, Int(math.MinInt64).Cmp(Float(float64(math.MinInt64))))

	// Fractions around a shared integer part.
	assert.Equal(t, -1, Int(10).Cmp(Float(10.5)))
	assert.Equal(t, 1, Int(-4).Cmp(Float(-4.5)))
	assert.Equal(t, -1, Int(7).Cmp(Float(math.Inf(1))))
	assert.Equal(t, 1, Int(7).Cmp(Float(math.Inf(-1))))
}

func TestValueEncodingInjective(t *testing.T) {
	vals := []Value{
		Null(),
		Bool(false),
		Bool(true),
		Int(0),
		Int(1),
		Float(0),
		Float(1),
		Text(""),
		Text("x"),
		Bytes(nil),
		Bytes([]byte("x")),
		Time(time.UnixMicro(0)),
		Time(time.UnixMicro(1)),
	}

	seen := make(map[string]Value)
	for _, v := range vals {
		enc := string(v.AppendEncode(nil))
		prev, dup := seen[enc]
		require.False(t, dup, "%s and %s share encoding", v, prev)
		seen[enc] = v
	}

	// Equal values share an encoding and a hash.
	a, b := Text("hello"), Text("hello")
	assert.Equal(t, a.AppendEncode(nil), b.AppendEncode(nil))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestValueAccessors(t *testing.T) {
	ts := time.Date(2023, 1, 2, 3, 4, 5, 6000, time.UTC)

	assert.True(t, Null().IsNull())
	assert.True(t, Bool(true).AsBool())
	assert.Equal(t, int64(-42), Int(-42).AsInt())
	assert.Equal(t, 2.5, Float(2.5).AsFloat())
	assert.Equal(t, "hi", Text("hi").AsText())
	assert.Equal(t, []byte{1, 2}, Bytes([]byte{1, 2}).AsBytes())
	assert.Equal(t, ts, Time(ts).AsTime())
}

func TestValueBytesCopied(t *testing.T) {
	src := []byte{1, 2, 3}
	v := Bytes(src)
	src[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, v.AsBytes())
}
