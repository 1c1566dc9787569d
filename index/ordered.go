package index

import (
	"github.com/google/btree"

	"github.com/lacunadb/lacuna/model"
)

// entry is one resident key with its row multiset.
type entry struct {
	key model.PointKey
	bag *model.Bag
}

// orderedStore backs an index with a B-tree in key order plus the filled
// interval set. Every resident key lies inside a filled interval; the
// reverse does not hold, since a filled interval may contain no rows.
type orderedStore struct {
	tree   *btree.BTreeG[*entry]
	filled intervalSet
	rows   int
}

const orderedDegree = 16

func newOrderedStore() *orderedStore {
	return &orderedStore{
		tree: btree.NewG(orderedDegree, func(a, b *entry) bool {
			return a.key.Cmp(b.key) < 0
		}),
	}
}

func (o *orderedStore) get(key model.PointKey) (*entry, bool) {
	return o.tree.Get(&entry{key: key})
}

// ascendRange visits entries whose keys fall within [lo, hi] in key order.
// fn returning false stops the walk.
func (o *orderedStore) ascendRange(lo, hi model.Bound, fn func(*entry) bool) {
	visit := func(e *entry) bool {
		if !upperAdmits(hi, e.key) {
			return false
		}
		return fn(e)
	}
	switch lo.Kind {
	case model.BoundUnbounded:
		o.tree.Ascend(visit)
	case model.BoundIncluded:
		o.tree.AscendGreaterOrEqual(&entry{key: lo.Key}, visit)
	default: // BoundExcluded
		o.tree.AscendGreaterOrEqual(&entry{key: lo.Key}, func(e *entry) bool {
			if e.key.Cmp(lo.Key) == 0 {
				return true
			}
			return visit(e)
		})
	}
}

// keyAt returns the resident key of the given rank in key order. This is an
// ordinal walk: O(rank) per call, the accepted cost of an ordered structure
// without positional access. Random eviction batches amortize it by taking
// a contiguous run from one walk.
func (o *orderedStore) keyAt(rank uint64) (model.PointKey, bool) {
	n := o.tree.Len()
	if n == 0 {
		return nil, false
	}
	target := int(rank % uint64(n))
	var found model.PointKey
	i := 0
	o.tree.Ascend(func(e *entry) bool {
		if i == target {
			found = e.key
			return false
		}
		i++
		return true
	})
	return found, true
}

// keysFrom returns up to n resident keys in key order starting at the first
// key >= from.
func (o *orderedStore) keysFrom(from model.PointKey, n int) []model.PointKey {
	if n <= 0 {
		return nil
	}
	out := make([]model.PointKey, 0, n)
	o.tree.AscendGreaterOrEqual(&entry{key: from}, func(e *entry) bool {
		out = append(out, e.key)
		return len(out) < n
	})
	return out
}

func upperAdmits(hi model.Bound, key model.PointKey) bool {
	switch hi.Kind {
	case model.BoundUnbounded:
		return true
	case model.BoundIncluded:
		return key.Cmp(hi.Key) <= 0
	default:
		return key.Cmp(hi.Key) < 0
	}
}
