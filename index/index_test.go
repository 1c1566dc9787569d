package index

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacunadb/lacuna/model"
)

// Rows used throughout: (id, name) with the index keyed on column 0.
func irow(id int64, name string) *model.Row {
	return model.NewRow(model.Int(id), model.Text(name))
}

func orderedByID() *KeyedIndex {
	return New(Definition{Columns: []int{0}, Backing: Ordered})
}

func hashedByID() *KeyedIndex {
	return New(Definition{Columns: []int{0}, Backing: Hashed})
}

func TestArityMismatchPanics(t *testing.T) {
	ix := hashedByID()
	twoCol := model.KeyOf(model.Int(1), model.Int(2))

	assert.Panics(t, func() { ix.Lookup(twoCol) })
	assert.Panics(t, func() { ix.Lookup(model.PointKey{}) })
	assert.Panics(t, func() { ix.InsertKeyed(twoCol, irow(1, "a"), false) })
	assert.Panics(t, func() { ix.RemoveKeyed(twoCol, nil, nil) })

	// Correct arity never panics, whatever the key content.
	assert.NotPanics(t, func() { ix.Lookup(model.KeyOf(model.Null())) })
	assert.NotPanics(t, func() { ix.Lookup(model.KeyOf(model.Text("zzz"))) })
}

func TestNaNKeyDoesNotAliasFloatKeys(t *testing.T) {
	ix := orderedByID()
	one := model.KeyOf(model.Float(1))
	nan := model.KeyOf(model.Float(math.NaN()))

	require.True(t, ix.InsertKeyed(one, model.NewRow(model.Float(1), model.Text("a")), false))

	// A NaN key is its own point in key order, not a twin of 1.0.
	_, found := ix.Lookup(nan)
	assert.False(t, found, "NaN key must be a hole, not an alias of 1.0")

	require.True(t, ix.InsertKeyed(nan, model.NewRow(model.Float(math.NaN()), model.Text("n")), false))
	bag, found := ix.Lookup(nan)
	require.True(t, found)
	assert.Equal(t, 1, bag.Len())
	bag, found = ix.Lookup(one)
	require.True(t, found)
	assert.Equal(t, 1, bag.Len())
	assert.Equal(t, 2, ix.Len())
}

func TestRangeOpsOnHashedBackingPanic(t *testing.T) {
	ix := hashedByID()
	rng := model.RangeKey{Lower: model.Included(ik(1)), Upper: model.Included(ik(5))}

	assert.Panics(t, func() { ix.InsertRange(rng) })
	assert.Panics(t, func() { ix.InsertFullRange() })
	assert.Panics(t, func() { ix.LookupRange(rng) })
	assert.Panics(t, func() { ix.EvictRange(rng) })
}

func TestZeroArityCannotBePartial(t *testing.T) {
	ix := New(Definition{Columns: nil, Backing: Ordered})

	assert.Panics(t, func() { ix.InsertRange(model.FullRange()) })
	assert.Panics(t, func() { ix.InsertFullRange() })
	assert.Panics(t, func() { ix.Evict(model.PointKey{}) })
	assert.Panics(t, func() { ix.EvictRandom(0) })

	// The zero-arity index itself still stores rows under the empty key.
	require.True(t, ix.Insert(irow(1, "a"), false))
	require.True(t, ix.Insert(irow(2, "b"), false))
	bag, ok := ix.Lookup(model.PointKey{})
	require.True(t, ok)
	assert.Equal(t, 2, bag.Len())
	assert.Equal(t, 1, ix.Len())
}

func TestPartialInsertInvariant(t *testing.T) {
	for _, backing := range []Backing{Ordered, Hashed} {
		ix := New(Definition{Columns: []int{0}, Backing: backing})

		// Partial insert into an undemanded key is rejected and stores nothing.
		assert.False(t, ix.Insert(irow(5, "a"), true), backing.String())
		assert.Equal(t, 0, ix.Len())
		assert.Equal(t, 0, ix.RowCount())

		// The same insert without partial creates exactly one key.
		assert.True(t, ix.Insert(irow(5, "a"), false))
		assert.Equal(t, 1, ix.Len())

		// Partial insert into a now-resident key succeeds.
		assert.True(t, ix.Insert(irow(5, "b"), true))
		bag, ok := ix.Lookup(model.KeyOf(model.Int(5)))
		require.True(t, ok)
		assert.Equal(t, 2, bag.Len())
	}
}

func TestPartialInsertIntoFilledRange(t *testing.T) {
	ix := orderedByID()
	ix.InsertRange(model.RangeKey{Lower: model.Included(ik(1)), Upper: model.Included(ik(10))})

	// Key 5 is covered by the filled range, so a partial insert must land
	// even though the key holds no entry yet.
	assert.True(t, ix.Insert(irow(5, "a"), true))
	bag, ok := ix.Lookup(model.KeyOf(model.Int(5)))
	require.True(t, ok)
	assert.Equal(t, 1, bag.Len())

	// Key 11 is outside the range: still a hole, insert rejected.
	assert.False(t, ix.Insert(irow(11, "x"), true))
	_, ok = ix.Lookup(model.KeyOf(model.Int(11)))
	assert.False(t, ok)
}

func TestDuplicateAccountingThroughIndex(t *testing.T) {
	ix := hashedByID()
	key := model.KeyOf(model.Int(1))

	require.True(t, ix.Insert(irow(1, "a"), false))
	require.True(t, ix.Insert(irow(1, "a"), false))

	bag, ok := ix.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, 2, bag.Len())
	assert.Equal(t, 1, bag.Distinct())

	var hit bool
	row, removed := ix.Remove(irow(1, "a").Values(), &hit)
	require.True(t, removed)
	assert.True(t, hit)
	assert.True(t, row.Equal(irow(1, "a")))

	bag, ok = ix.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, 1, bag.Len())

	_, removed = ix.Remove(irow(1, "a").Values(), nil)
	require.True(t, removed)

	// Bag emptied: the key is gone.
	_, ok = ix.Lookup(key)
	assert.False(t, ok)
	assert.Equal(t, 0, ix.Len())
}

func TestRemoveHitFlagDistinctFromRowFound(t *testing.T) {
	ix := hashedByID()
	require.True(t, ix.Insert(irow(1, "a"), false))

	// Key resident, row content absent: hit=true, found=false.
	var hit bool
	_, found := ix.Remove(irow(1, "other").Values(), &hit)
	assert.False(t, found)
	assert.True(t, hit)

	// Key not resident: hit stays false.
	hit = false
	_, found = ix.Remove(irow(99, "x").Values(), &hit)
	assert.False(t, found)
	assert.False(t, hit)
}

func TestLookupRangeCoveredAndMisses(t *testing.T) {
	ix := orderedByID()
	ix.InsertRange(model.RangeKey{Lower: model.Included(ik(1)), Upper: model.Included(ik(10))})

	// Covered sub-range with no rows: empty but non-missing sequence.
	rows, misses := ix.LookupRange(model.RangeKey{Lower: model.Included(ik(2)), Upper: model.Included(ik(5))})
	require.Nil(t, misses)
	n := 0
	for range rows {
		n++
	}
	assert.Equal(t, 0, n)

	// Overhanging query reports exactly the uncovered tail.
	rows, misses = ix.LookupRange(model.RangeKey{Lower: model.Included(ik(8)), Upper: model.Included(ik(20))})
	assert.Nil(t, rows)
	require.Len(t, misses, 1)
	assert.Equal(t, model.Excluded(ik(10)), misses[0].Lower)
	assert.Equal(t, model.Included(ik(20)), misses[0].Upper)
}

func TestLookupRangeYieldsRowsInKeyOrder(t *testing.T) {
	ix := orderedByID()
	ix.InsertFullRange()
	require.True(t, ix.Insert(irow(3, "c"), true))
	require.True(t, ix.Insert(irow(1, "a"), true))
	require.True(t, ix.Insert(irow(2, "b"), true))
	require.True(t, ix.Insert(irow(2, "b"), true)) // duplicate

	rows, misses := ix.LookupRange(model.RangeKey{Lower: model.Included(ik(1)), Upper: model.Excluded(ik(3))})
	require.Nil(t, misses)

	var got []string
	for r := range rows {
		got = append(got, r.ValueAt(1).AsText())
	}
	assert.Equal(t, []string{"a", "b", "b"}, got)
}

func TestRangeCoverageClosure(t *testing.T) {
	// Two intervals adjoining at a boundary equal their union for every
	// lookup strictly inside it.
	ix := orderedByID()
	ix.InsertRange(model.RangeKey{Lower: model.Included(ik(0)), Upper: model.Included(ik(5))})
	ix.InsertRange(model.RangeKey{Lower: model.Excluded(ik(5)), Upper: model.Included(ik(10))})

	for lo := int64(0); lo <= 10; lo++ {
		for hi := lo; hi <= 10; hi++ {
			_, misses := ix.LookupRange(model.RangeKey{Lower: model.Included(ik(lo)), Upper: model.Included(ik(hi))})
			assert.Nil(t, misses, "range [%d, %d]", lo, hi)
		}
	}
}

func TestEvictCreatesHole(t *testing.T) {
	ix := orderedByID()
	ix.InsertRange(model.RangeKey{Lower: model.Included(ik(1)), Upper: model.Included(ik(10))})
	require.True(t, ix.Insert(irow(5, "a"), true))

	bag, ok := ix.Evict(model.KeyOf(model.Int(5)))
	require.True(t, ok)
	assert.Equal(t, 1, bag.Len())

	// Key 5 is a hole now: point lookup misses and range lookups spanning
	// it report the single-point gap.
	_, ok = ix.Lookup(model.KeyOf(model.Int(5)))
	assert.False(t, ok)
	_, misses := ix.LookupRange(model.RangeKey{Lower: model.Included(ik(4)), Upper: model.Included(ik(6))})
	require.Len(t, misses, 1)
	assert.Equal(t, model.Included(ik(5)), misses[0].Lower)
	assert.Equal(t, model.Included(ik(5)), misses[0].Upper)

	// Neighbors remain covered.
	_, ok = ix.Lookup(model.KeyOf(model.Int(4)))
	assert.True(t, ok)
}

func TestEvictRangeRemovesRowsAndCoverage(t *testing.T) {
	ix := orderedByID()
	ix.InsertRange(model.RangeKey{Lower: model.Included(ik(0)), Upper: model.Included(ik(100))})
	for i := int64(0); i < 10; i++ {
		require.True(t, ix.Insert(irow(i*10, "r"), true))
	}
	require.Equal(t, 10, ix.Len())

	evicted := ix.EvictRange(model.RangeKey{Lower: model.Included(ik(20)), Upper: model.Included(ik(49))})
	assert.Equal(t, 3, evicted.Len()) // keys 20, 30, 40
	assert.Equal(t, 7, ix.Len())
	assert.Equal(t, 7, ix.RowCount())

	// The evicted region is a hole again; the flanks stay covered.
	_, misses := ix.LookupRange(model.RangeKey{Lower: model.Included(ik(20)), Upper: model.Included(ik(49))})
	require.Len(t, misses, 1)
	_, misses = ix.LookupRange(model.RangeKey{Lower: model.Included(ik(0)), Upper: model.Excluded(ik(20))})
	assert.Nil(t, misses)
	_, misses = ix.LookupRange(model.RangeKey{Lower: model.Excluded(ik(49)), Upper: model.Included(ik(100))})
	assert.Nil(t, misses)
}

func TestEvictRandomDeterministic(t *testing.T) {
	build := func(backing Backing) *KeyedIndex {
		ix := New(Definition{Columns: []int{0}, Backing: backing})
		for i := int64(0); i < 8; i++ {
			require.True(t, ix.Insert(irow(i, "r"), false))
		}
		return ix
	}

	for _, backing := range []Backing{Ordered, Hashed} {
		a, b := build(backing), build(backing)
		for _, seed := range []uint64{0, 1, 7, 12345} {
			_, ka, oka := a.EvictRandom(seed)
			_, kb, okb := b.EvictRandom(seed)
			require.True(t, oka, backing.String())
			require.True(t, okb)
			assert.True(t, ka.Equal(kb), "same seed, same history, same victim")
		}
		assert.Equal(t, 4, a.Len())
	}

	empty := hashedByID()
	_, _, ok := empty.EvictRandom(42)
	assert.False(t, ok)
}

func TestValuesAndEntriesIteration(t *testing.T) {
	ix := hashedByID()
	for i := int64(0); i < 5; i++ {
		require.True(t, ix.Insert(irow(i, "r"), false))
		require.True(t, ix.Insert(irow(i, "r"), false))
	}

	bags, total := 0, 0
	for bag := range ix.Values() {
		bags++
		total += bag.Len()
	}
	assert.Equal(t, 5, bags)
	assert.Equal(t, 10, total)
	assert.Equal(t, 10, ix.RowCount())

	keys := 0
	for key, bag := range ix.Entries() {
		keys++
		assert.Equal(t, 1, key.Arity())
		assert.Equal(t, 2, bag.Len())
	}
	assert.Equal(t, 5, keys)
}

func TestClearKeepsKeyResident(t *testing.T) {
	for _, backing := range []Backing{Ordered, Hashed} {
		ix := New(Definition{Columns: []int{0}, Backing: backing})
		require.True(t, ix.Insert(irow(1, "a"), false))
		require.True(t, ix.Insert(irow(1, "b"), false))

		ix.Clear(model.KeyOf(model.Int(1)))

		bag, ok := ix.Lookup(model.KeyOf(model.Int(1)))
		require.True(t, ok, "cleared key stays resident on %s", backing)
		assert.Equal(t, 0, bag.Len())
		assert.Equal(t, 1, ix.Len())
		assert.Equal(t, 0, ix.RowCount())

		// Clearing a non-resident key demands it empty.
		ix.Clear(model.KeyOf(model.Int(2)))
		bag, ok = ix.Lookup(model.KeyOf(model.Int(2)))
		require.True(t, ok)
		assert.True(t, bag.Empty())

		// A partial insert lands in the cleared key.
		assert.True(t, ix.Insert(irow(2, "z"), true))
	}
}

func TestPurge(t *testing.T) {
	ix := orderedByID()
	ix.InsertFullRange()
	for i := int64(0); i < 5; i++ {
		require.True(t, ix.Insert(irow(i, "r"), true))
	}

	ix.Purge()
	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, 0, ix.RowCount())

	// Purge goes back to cold: coverage is gone too.
	_, ok := ix.Lookup(model.KeyOf(model.Int(1)))
	assert.False(t, ok)
	_, misses := ix.LookupRange(model.RangeKey{Lower: model.Included(ik(0)), Upper: model.Included(ik(4))})
	assert.Len(t, misses, 1)
}

func TestKeysFromAndKeyAt(t *testing.T) {
	ix := orderedByID()
	ix.InsertFullRange()
	for _, id := range []int64{40, 10, 30, 20} {
		require.True(t, ix.Insert(irow(id, "r"), true))
	}

	keys := ix.KeysFrom(model.KeyOf(model.Int(15)), 2)
	require.Len(t, keys, 2)
	assert.True(t, keys[0].Equal(model.KeyOf(model.Int(20))))
	assert.True(t, keys[1].Equal(model.KeyOf(model.Int(30))))

	// Ordered KeyAt ranks in key order.
	k, ok := ix.KeyAt(0)
	require.True(t, ok)
	assert.True(t, k.Equal(model.KeyOf(model.Int(10))))
	k, _ = ix.KeyAt(3)
	assert.True(t, k.Equal(model.KeyOf(model.Int(40))))
	// Rank wraps modulo the resident count.
	k, _ = ix.KeyAt(4)
	assert.True(t, k.Equal(model.KeyOf(model.Int(10))))
}

func TestDefinitionValidation(t *testing.T) {
	assert.Panics(t, func() { New(Definition{Columns: []int{0, 0}, Backing: Hashed}) })
	assert.Panics(t, func() { New(Definition{Columns: []int{-1}, Backing: Hashed}) })
}
