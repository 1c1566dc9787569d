package index

import (
	"fmt"

	"github.com/lacunadb/lacuna/model"
)

// Backing selects the store discipline of a KeyedIndex.
type Backing uint8

const (
	// Ordered stores keys in sort order: range lookups, sorted iteration
	// and filled-interval tracking are available.
	Ordered Backing = iota
	// Hashed stores keys in a hash map: O(1) point access, no range
	// support and no interval tracking.
	Hashed
)

// String returns the backing name.
func (b Backing) String() string {
	switch b {
	case Ordered:
		return "ordered"
	case Hashed:
		return "hashed"
	default:
		return fmt.Sprintf("backing(%d)", uint8(b))
	}
}

// Definition fixes an index's key columns and backing discipline for its
// lifetime. Arity 0 (no columns) indexes all rows under the empty key.
type Definition struct {
	// Columns are the row positions the key is projected from, in key order.
	Columns []int
	// Backing is the store discipline.
	Backing Backing
}

// Arity returns the key arity.
func (d Definition) Arity() int { return len(d.Columns) }

// KeyForRow projects a row onto the definition's key columns.
func (d Definition) KeyForRow(row *model.Row) model.PointKey {
	return row.Project(d.Columns)
}

func (d Definition) validate() {
	seen := make(map[int]bool, len(d.Columns))
	for _, c := range d.Columns {
		if c < 0 {
			panic(fmt.Sprintf("lacuna/index: negative key column %d", c))
		}
		if seen[c] {
			panic(fmt.Sprintf("lacuna/index: duplicate key column %d", c))
		}
		seen[c] = true
	}
}
