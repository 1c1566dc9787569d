package index

import (
	"fmt"
	"iter"

	"github.com/lacunadb/lacuna/model"
)

// KeyedIndex stores row multisets under fixed-arity keys, tracking which
// parts of key-space are materialized. It is not synchronized: the view
// layer confines every index to a single generation with one mutator.
type KeyedIndex struct {
	def Definition
	ord *orderedStore // set iff def.Backing == Ordered
	hsh *hashedStore  // set iff def.Backing == Hashed
}

// New builds an empty index for the given definition. Panics on an invalid
// definition (negative or duplicate key columns).
func New(def Definition) *KeyedIndex {
	def.validate()
	ix := &KeyedIndex{def: def}
	switch def.Backing {
	case Ordered:
		ix.ord = newOrderedStore()
	case Hashed:
		ix.hsh = newHashedStore()
	default:
		panic(fmt.Sprintf("lacuna/index: invalid backing %d", def.Backing))
	}
	return ix
}

// Definition returns the index's immutable definition.
func (ix *KeyedIndex) Definition() Definition { return ix.def }

// Len returns the number of resident keys.
func (ix *KeyedIndex) Len() int {
	if ix.ord != nil {
		return ix.ord.tree.Len()
	}
	return len(ix.hsh.entries)
}

// RowCount returns the number of stored rows including duplicates.
func (ix *KeyedIndex) RowCount() int {
	if ix.ord != nil {
		return ix.ord.rows
	}
	return ix.hsh.rows
}

// Lookup returns the bag for an exact key. For ordered backings a key that
// lies inside a filled interval but holds no rows reports an empty bag with
// found=true: confirmed absence, not a hole. found=false always means the
// key is a hole.
func (ix *KeyedIndex) Lookup(key model.PointKey) (*model.Bag, bool) {
	ix.mustKeyArity(key, "Lookup")
	if ix.ord != nil {
		if e, ok := ix.ord.get(key); ok {
			return e.bag, true
		}
		if ix.ord.filled.containsPoint(key) {
			return model.NewBag(), true
		}
		return nil, false
	}
	e, ok := ix.hsh.get(key)
	if !ok {
		return nil, false
	}
	return e.bag, true
}

// Insert projects row onto the key columns and stores it under the derived
// key. See InsertKeyed for the partial-materialization rule.
func (ix *KeyedIndex) Insert(row *model.Row, partial bool) bool {
	return ix.InsertKeyed(ix.def.KeyForRow(row), row, partial)
}

// InsertKeyed stores row under key. When partial is true the insert only
// succeeds if the key is already demanded: resident, or (ordered backings)
// inside a filled interval. A rejected insert stores nothing and returns
// false; speculative coverage is never created. When partial is false a
// missing key is created and, on ordered backings, marked filled.
func (ix *KeyedIndex) InsertKeyed(key model.PointKey, row *model.Row, partial bool) bool {
	ix.mustKeyArity(key, "Insert")
	if ix.ord != nil {
		if e, ok := ix.ord.get(key); ok {
			e.bag.Insert(row)
			ix.ord.rows++
			return true
		}
		covered := ix.ord.filled.containsPoint(key)
		if partial && !covered {
			return false
		}
		bag := model.BagOf(row)
		ix.ord.tree.ReplaceOrInsert(&entry{key: key.Clone(), bag: bag})
		ix.ord.rows++
		if !covered {
			at := model.Included(key)
			ix.ord.filled.add(at, at)
		}
		return true
	}
	if e, ok := ix.hsh.get(key); ok {
		e.bag.Insert(row)
		ix.hsh.rows++
		return true
	}
	if partial {
		return false
	}
	ix.hsh.put(key.Clone(), &entry{key: key.Clone(), bag: model.BagOf(row)})
	ix.hsh.rows++
	return true
}

// Remove projects rowVals onto the key columns and removes one occurrence
// of the matching row. See RemoveKeyed.
func (ix *KeyedIndex) Remove(rowVals []model.Value, hit *bool) (*model.Row, bool) {
	row := model.NewRow(rowVals...)
	return ix.RemoveKeyed(ix.def.KeyForRow(row), rowVals, hit)
}

// RemoveKeyed removes one occurrence of the row whose content equals
// rowVals from the bag at key. hit (if non-nil) is set when the key is
// resident, even if no content-equal row was found there; that signal is
// distinct from the row-found return. The entry is dropped once its bag
// empties; for ordered backings the filled marking stays, so the key keeps
// reporting confirmed absence rather than becoming a hole.
func (ix *KeyedIndex) RemoveKeyed(key model.PointKey, rowVals []model.Value, hit *bool) (*model.Row, bool) {
	ix.mustKeyArity(key, "Remove")
	e, ok := ix.getEntry(key)
	if !ok {
		return nil, false
	}
	if hit != nil {
		*hit = true
	}
	row, removed := e.bag.Remove(rowVals)
	if !removed {
		return nil, false
	}
	if ix.ord != nil {
		ix.ord.rows--
		if e.bag.Empty() {
			ix.ord.tree.Delete(e)
		}
	} else {
		ix.hsh.rows--
		if e.bag.Empty() {
			ix.hsh.delete(key)
		}
	}
	return row, true
}

// Clear empties the bag at key while keeping the key resident (and, on
// ordered backings, filled). Used when a hole is being refilled so the
// key's capacity is not dropped and recreated.
func (ix *KeyedIndex) Clear(key model.PointKey) {
	ix.mustKeyArity(key, "Clear")
	if ix.ord != nil {
		if e, ok := ix.ord.get(key); ok {
			ix.ord.rows -= e.bag.Len()
			e.bag = model.NewBag()
		} else {
			ix.ord.tree.ReplaceOrInsert(&entry{key: key.Clone(), bag: model.NewBag()})
		}
		at := model.Included(key)
		ix.ord.filled.add(at, at)
		return
	}
	if e, ok := ix.hsh.get(key); ok {
		ix.hsh.rows -= e.bag.Len()
		e.bag = model.NewBag()
	} else {
		ix.hsh.put(key.Clone(), &entry{key: key.Clone(), bag: model.NewBag()})
	}
}

// InsertRange marks [rng] filled without storing any rows: an upstream
// range query returned no matching rows, and that absence is authoritative.
// Panics on hashed backings and on the zero-arity index, neither of which
// can represent partial range coverage.
func (ix *KeyedIndex) InsertRange(rng model.RangeKey) {
	ix.mustOrdered("InsertRange")
	ix.mustPartialable("InsertRange")
	ix.mustRangeArity(rng, "InsertRange")
	ix.ord.filled.add(rng.Lower, rng.Upper)
}

// InsertFullRange marks the entire key-space filled. Same preconditions as
// InsertRange.
func (ix *KeyedIndex) InsertFullRange() {
	ix.mustOrdered("InsertFullRange")
	ix.mustPartialable("InsertFullRange")
	ix.ord.filled.setFull()
}

// LookupRange returns a lazy sequence over every row whose key falls in
// rng, but only if the whole range is covered by filled intervals.
// Otherwise it returns the exact uncovered sub-ranges so the caller can
// fill precisely those gaps; a partially covered range never yields a
// partial answer. The sequence is finite, reads the live structure, and
// must be consumed before the index is next mutated.
//
// Panics on hashed backings and on arity mismatch.
func (ix *KeyedIndex) LookupRange(rng model.RangeKey) (iter.Seq[*model.Row], []model.RangeKey) {
	ix.mustOrdered("LookupRange")
	ix.mustRangeArity(rng, "LookupRange")
	if miss := ix.ord.filled.missing(rng.Lower, rng.Upper); len(miss) > 0 {
		out := make([]model.RangeKey, len(miss))
		for i, m := range miss {
			out[i] = m.rangeKey()
		}
		return nil, out
	}
	seq := func(yield func(*model.Row) bool) {
		ix.ord.ascendRange(rng.Lower, rng.Upper, func(e *entry) bool {
			for row := range e.bag.Rows() {
				if !yield(row) {
					return false
				}
			}
			return true
		})
	}
	return seq, nil
}

// Evict removes and returns all rows for key, leaving the key uncovered
// again. On ordered backings the filled marking for the point is removed
// even when no rows were resident, so the hole is re-created either way.
// Panics on the zero-arity index, which cannot be partial.
func (ix *KeyedIndex) Evict(key model.PointKey) (*model.Bag, bool) {
	ix.mustPartialable("Evict")
	ix.mustKeyArity(key, "Evict")
	if ix.ord != nil {
		at := model.Included(key)
		ix.ord.filled.remove(at, at)
		e, ok := ix.ord.tree.Delete(&entry{key: key})
		if !ok {
			return nil, false
		}
		ix.ord.rows -= e.bag.Len()
		return e.bag, true
	}
	e, ok := ix.hsh.delete(key)
	if !ok {
		return nil, false
	}
	ix.hsh.rows -= e.bag.Len()
	return e.bag, true
}

// EvictRange removes and returns all rows whose keys fall in rng and drops
// the filled-interval marking over it, re-creating a hole. Panics on hashed
// backings and on the zero-arity index.
func (ix *KeyedIndex) EvictRange(rng model.RangeKey) *model.Bag {
	ix.mustOrdered("EvictRange")
	ix.mustPartialable("EvictRange")
	ix.mustRangeArity(rng, "EvictRange")
	var victims []*entry
	ix.ord.ascendRange(rng.Lower, rng.Upper, func(e *entry) bool {
		victims = append(victims, e)
		return true
	})
	out := model.NewBag()
	for _, e := range victims {
		ix.ord.tree.Delete(e)
		ix.ord.rows -= e.bag.Len()
		out.Merge(e.bag)
	}
	ix.ord.filled.remove(rng.Lower, rng.Upper)
	return out
}

// EvictRandom evicts one resident key chosen deterministically from seed
// modulo the resident-key count, returning its bag and key. Returns false
// on an empty index. Hashed backings select by rank in O(log n) via the
// ordinal registry; ordered backings pay an ordinal walk.
func (ix *KeyedIndex) EvictRandom(seed uint64) (*model.Bag, model.PointKey, bool) {
	ix.mustPartialable("EvictRandom")
	key, ok := ix.keyAt(seed)
	if !ok {
		return nil, nil, false
	}
	bag, _ := ix.Evict(key)
	if bag == nil {
		bag = model.NewBag()
	}
	return bag, key, true
}

// Values iterates all resident bags. The sequence is finite and restartable
// per call; the index must not be mutated during iteration.
func (ix *KeyedIndex) Values() iter.Seq[*model.Bag] {
	return func(yield func(*model.Bag) bool) {
		if ix.ord != nil {
			ix.ord.tree.Ascend(func(e *entry) bool {
				return yield(e.bag)
			})
			return
		}
		for _, e := range ix.hsh.entries {
			if !yield(e.bag) {
				return
			}
		}
	}
}

// Entries iterates all resident keys with their bags. Same iteration
// contract as Values.
func (ix *KeyedIndex) Entries() iter.Seq2[model.PointKey, *model.Bag] {
	return func(yield func(model.PointKey, *model.Bag) bool) {
		if ix.ord != nil {
			ix.ord.tree.Ascend(func(e *entry) bool {
				return yield(e.key, e.bag)
			})
			return
		}
		for _, e := range ix.hsh.entries {
			if !yield(e.key, e.bag) {
				return
			}
		}
	}
}

// EntriesInRange iterates resident keys in rng, in key order. Ordered
// backings only; used by eviction to cost contiguous victim ranges.
func (ix *KeyedIndex) EntriesInRange(rng model.RangeKey) iter.Seq2[model.PointKey, *model.Bag] {
	ix.mustOrdered("EntriesInRange")
	ix.mustRangeArity(rng, "EntriesInRange")
	return func(yield func(model.PointKey, *model.Bag) bool) {
		ix.ord.ascendRange(rng.Lower, rng.Upper, func(e *entry) bool {
			return yield(e.key, e.bag)
		})
	}
}

// KeyAt returns the resident key of the given rank: ordinal order for
// hashed backings, key order for ordered ones. Deterministic for a fixed
// mutation history; used by eviction strategies.
func (ix *KeyedIndex) KeyAt(rank uint64) (model.PointKey, bool) {
	return ix.keyAt(rank)
}

// KeysFrom returns up to n resident keys in key order starting at the
// first key >= from. Ordered backings only.
func (ix *KeyedIndex) KeysFrom(from model.PointKey, n int) []model.PointKey {
	ix.mustOrdered("KeysFrom")
	ix.mustKeyArity(from, "KeysFrom")
	return ix.ord.keysFrom(from, n)
}

// Purge drops every key, every row and (ordered backings) every filled
// marking: the index goes back to fully cold.
func (ix *KeyedIndex) Purge() {
	if ix.ord != nil {
		ix.ord.tree.Clear(false)
		ix.ord.filled.clear()
		ix.ord.rows = 0
		return
	}
	ix.hsh.reset()
}

func (ix *KeyedIndex) getEntry(key model.PointKey) (*entry, bool) {
	if ix.ord != nil {
		return ix.ord.get(key)
	}
	return ix.hsh.get(key)
}

func (ix *KeyedIndex) keyAt(rank uint64) (model.PointKey, bool) {
	if ix.ord != nil {
		return ix.ord.keyAt(rank)
	}
	return ix.hsh.ords.at(rank)
}

func (ix *KeyedIndex) mustKeyArity(key model.PointKey, op string) {
	if len(key) != len(ix.def.Columns) {
		panic(fmt.Sprintf("lacuna/index: %s: key arity %d on index of arity %d",
			op, len(key), len(ix.def.Columns)))
	}
}

func (ix *KeyedIndex) mustRangeArity(rng model.RangeKey, op string) {
	if rng.Lower.Kind != model.BoundUnbounded {
		ix.mustKeyArity(rng.Lower.Key, op)
	}
	if rng.Upper.Kind != model.BoundUnbounded {
		ix.mustKeyArity(rng.Upper.Key, op)
	}
}

func (ix *KeyedIndex) mustOrdered(op string) {
	if ix.ord == nil {
		panic(fmt.Sprintf("lacuna/index: %s is unsupported on a hashed backing", op))
	}
}

func (ix *KeyedIndex) mustPartialable(op string) {
	if len(ix.def.Columns) == 0 {
		panic(fmt.Sprintf("lacuna/index: %s on the zero-arity index, which cannot be partial", op))
	}
}
