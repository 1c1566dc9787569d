package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacunadb/lacuna/evict"
	"github.com/lacunadb/lacuna/index"
	"github.com/lacunadb/lacuna/model"
)

func bagBytes(_ model.PointKey, bag *model.Bag) int64 {
	return int64(bag.Len()) * 64
}

func TestEvictKeysHashedConservation(t *testing.T) {
	w, r := New(index.Definition{Columns: []int{0}, Backing: index.Hashed}, WithSeed(42))
	for i := int64(0); i < 100; i++ {
		w.Insert(vk(i), vrow(i, "r"))
	}
	w.Publish()

	freed, victims := w.EvictKeys(evict.Fraction(0.1), bagBytes)
	require.Len(t, victims, 10)
	assert.Equal(t, int64(10*64), freed)

	// Victims are queued, not yet visible.
	n, _ := r.Len()
	assert.Equal(t, 100, n)

	w.Publish()
	n, _ = r.Len()
	assert.Equal(t, 90, n, "resident keys drop by exactly the victim count")

	// Every reported victim is gone, so the byte estimate was honest.
	for _, v := range victims {
		require.NotNil(t, v.Key)
		_, found, err := r.Lookup(v.Key)
		require.NoError(t, err)
		assert.False(t, found, "victim %s still resident", v.Key)
		assert.Equal(t, int64(64), v.Bytes)
	}
}

func TestEvictKeysOrderedEvictsContiguousRange(t *testing.T) {
	w, r := New(index.Definition{Columns: []int{0}, Backing: index.Ordered}, WithSeed(9))
	w.InsertRange(vrange(0, 999))
	for i := int64(0); i < 100; i++ {
		w.Insert(vk(i*10), vrow(i*10, "r"))
	}
	w.Publish()

	freed, victims := w.EvictKeys(evict.Fraction(0.2), bagBytes)
	require.Len(t, victims, 1, "ordered eviction sheds one contiguous range")
	require.NotNil(t, victims[0].Range)
	assert.Equal(t, int64(20*64), freed)

	w.Publish()
	n, _ := r.Len()
	assert.Equal(t, 80, n)

	// The evicted range is a hole now; a range query over it misses.
	res, err := r.LookupRange(*victims[0].Range)
	require.NoError(t, err)
	assert.False(t, res.Covered())
}

func TestEvictKeysSingleVictim(t *testing.T) {
	w, r := New(index.Definition{Columns: []int{0}, Backing: index.Hashed}, WithSeed(1))
	for i := int64(0); i < 10; i++ {
		w.Insert(vk(i), vrow(i, "r"))
	}
	w.Publish()

	_, victims := w.EvictKeys(evict.Single(), bagBytes)
	require.Len(t, victims, 1)
	w.Publish()

	n, _ := r.Len()
	assert.Equal(t, 9, n)
}

func TestEvictKeysPublishesPendingFirst(t *testing.T) {
	w, r := New(index.Definition{Columns: []int{0}, Backing: index.Hashed}, WithSeed(3))
	w.Insert(vk(1), vrow(1, "a"))

	// EvictKeys publishes the queued insert before selecting victims, so
	// the insert is visible even though we never called Publish.
	freed, victims := w.EvictKeys(evict.Fraction(0), bagBytes)
	assert.Zero(t, freed)
	assert.Empty(t, victims)

	_, found, err := r.Lookup(vk(1))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestEvictKeysEmptyMap(t *testing.T) {
	w, _ := New(index.Definition{Columns: []int{0}, Backing: index.Hashed})
	freed, victims := w.EvictKeys(evict.Fraction(0.5), bagBytes)
	assert.Zero(t, freed)
	assert.Empty(t, victims)
}

func TestSizeEstimate(t *testing.T) {
	w, _ := New(index.Definition{Columns: []int{0}, Backing: index.Hashed})
	for i := int64(0); i < 5; i++ {
		w.Insert(vk(i), vrow(i, "r"))
	}
	w.Publish()
	assert.Equal(t, int64(5*64), w.SizeEstimate(bagBytes))
}
