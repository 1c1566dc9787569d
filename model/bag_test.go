package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBagDuplicateAccounting(t *testing.T) {
	bag := NewBag()
	r := NewRow(Int(1), Text("a"))

	// Two inserts of content-equal rows become one entry with count 2.
	bag.Insert(r)
	bag.Insert(NewRow(Int(1), Text("a")))
	assert.Equal(t, 2, bag.Len())
	assert.Equal(t, 1, bag.Distinct())
	assert.Equal(t, 2, bag.Count(r.Values()))

	got, ok := bag.Remove(r.Values())
	require.True(t, ok)
	assert.True(t, got.Equal(r))
	assert.Equal(t, 1, bag.Len())
	assert.True(t, bag.Contains(r.Values()))

	_, ok = bag.Remove(r.Values())
	require.True(t, ok)
	assert.True(t, bag.Empty())
	assert.False(t, bag.Contains(r.Values()))

	// Removing from empty never goes negative.
	_, ok = bag.Remove(r.Values())
	assert.False(t, ok)
	assert.Equal(t, 0, bag.Len())
}

func TestBagRowsYieldsMultiplicity(t *testing.T) {
	a := NewRow(Int(1))
	b := NewRow(Int(2))
	bag := BagOf(a, a, b)

	counts := make(map[string]int)
	for r := range bag.Rows() {
		counts[r.String()]++
	}
	assert.Equal(t, 2, counts[a.String()])
	assert.Equal(t, 1, counts[b.String()])

	distinct := 0
	for r, n := range bag.DistinctRows() {
		distinct++
		if r.Equal(a) {
			assert.Equal(t, 2, n)
		}
	}
	assert.Equal(t, 2, distinct)
}

func TestBagCloneIsIndependent(t *testing.T) {
	a := NewRow(Int(1))
	bag := BagOf(a, a)

	cp := bag.Clone()
	_, ok := bag.Remove(a.Values())
	require.True(t, ok)

	assert.Equal(t, 1, bag.Len())
	assert.Equal(t, 2, cp.Len(), "clone unaffected by source mutation")

	// Row handles are shared, not copied.
	for r := range cp.Rows() {
		assert.Same(t, a, r)
	}
}

func TestBagMerge(t *testing.T) {
	a := NewRow(Int(1))
	b := NewRow(Int(2))

	dst := BagOf(a)
	dst.Merge(BagOf(a, b))

	assert.Equal(t, 3, dst.Len())
	assert.Equal(t, 2, dst.Distinct())
	assert.Equal(t, 2, dst.Count(a.Values()))
}
