package model

import (
	"fmt"
	"iter"
)

// Bag is the multiset of rows stored under one key. Duplicate inserts of
// content-equal rows are represented as one entry with a count, not as
// duplicated storage.
//
// Bags are not safe for concurrent mutation; the view layer confines each
// bag to a single generation and hands read-only clones to callers.
type Bag struct {
	entries map[string]*bagEntry
	n       int // total occurrences, including duplicates
}

type bagEntry struct {
	row   *Row
	count int
}

// NewBag returns an empty bag.
func NewBag() *Bag {
	return &Bag{entries: make(map[string]*bagEntry)}
}

// BagOf returns a bag holding the given rows, duplicates counted.
func BagOf(rows ...*Row) *Bag {
	b := NewBag()
	for _, r := range rows {
		b.Insert(r)
	}
	return b
}

// Insert adds one occurrence of row.
func (b *Bag) Insert(row *Row) {
	ck := row.contentKey()
	if e, ok := b.entries[ck]; ok {
		e.count++
	} else {
		b.entries[ck] = &bagEntry{row: row, count: 1}
	}
	b.n++
}

// Remove drops one occurrence of the row whose content equals vals and
// returns the stored handle. The entry disappears when its count reaches
// zero; counts never go negative. Returns false when no content-equal row
// is present.
func (b *Bag) Remove(vals []Value) (*Row, bool) {
	ck := string(EncodeTuple(nil, vals))
	e, ok := b.entries[ck]
	if !ok {
		return nil, false
	}
	e.count--
	b.n--
	if e.count == 0 {
		delete(b.entries, ck)
	}
	return e.row, true
}

// Contains reports whether a row with the given content is present.
func (b *Bag) Contains(vals []Value) bool {
	_, ok := b.entries[string(EncodeTuple(nil, vals))]
	return ok
}

// Count returns the multiplicity of the row with the given content.
func (b *Bag) Count(vals []Value) int {
	if e, ok := b.entries[string(EncodeTuple(nil, vals))]; ok {
		return e.count
	}
	return 0
}

// Len returns the number of stored rows including duplicates.
func (b *Bag) Len() int { return b.n }

// Distinct returns the number of distinct rows.
func (b *Bag) Distinct() int { return len(b.entries) }

// Empty reports whether the bag holds no rows.
func (b *Bag) Empty() bool { return b.n == 0 }

// Rows yields every stored row, once per occurrence. Iteration order is
// unspecified. The bag must not be mutated during iteration.
func (b *Bag) Rows() iter.Seq[*Row] {
	return func(yield func(*Row) bool) {
		for _, e := range b.entries {
			for i := 0; i < e.count; i++ {
				if !yield(e.row) {
					return
				}
			}
		}
	}
}

// DistinctRows yields every distinct row with its multiplicity.
func (b *Bag) DistinctRows() iter.Seq2[*Row, int] {
	return func(yield func(*Row, int) bool) {
		for _, e := range b.entries {
			if !yield(e.row, e.count) {
				return
			}
		}
	}
}

// Clone returns an independent copy of the bag. Row handles are shared;
// only the counting structure is duplicated.
func (b *Bag) Clone() *Bag {
	cp := &Bag{entries: make(map[string]*bagEntry, len(b.entries)), n: b.n}
	for ck, e := range b.entries {
		cp.entries[ck] = &bagEntry{row: e.row, count: e.count}
	}
	return cp
}

// Merge moves all rows of other into b. Used when an evicted range's bags
// are folded into one result.
func (b *Bag) Merge(other *Bag) {
	for ck, e := range other.entries {
		if mine, ok := b.entries[ck]; ok {
			mine.count += e.count
		} else {
			b.entries[ck] = &bagEntry{row: e.row, count: e.count}
		}
		b.n += e.count
	}
}

// String returns a readable summary for logs and test failures.
func (b *Bag) String() string {
	return fmt.Sprintf("bag(%d rows, %d distinct)", b.n, len(b.entries))
}
