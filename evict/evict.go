// Package evict decides which resident keys a map sheds to bound memory.
//
// A Strategy picks victims appropriate to the backing discipline: individual
// keys for hashed backings, contiguous key ranges for ordered ones (so the
// filled-interval set stays compact instead of fragmenting into single-key
// holes). Strategies only select; the view layer performs the removal.
package evict

import (
	"math"
	"math/rand/v2"

	"github.com/lacunadb/lacuna/index"
	"github.com/lacunadb/lacuna/model"
)

// Quantity says how much to evict: a fraction of the currently resident
// keys, or exactly one key.
type Quantity struct {
	frac   float64
	single bool
}

// Fraction requests eviction of the given fraction of resident keys,
// rounded up. The fraction is clamped to [0, 1].
func Fraction(f float64) Quantity {
	return Quantity{frac: math.Min(math.Max(f, 0), 1)}
}

// Single requests eviction of exactly one key. This exists for diagnostics
// and tests; it is deliberately inefficient at scale and default eviction
// paths never use it.
func Single() Quantity { return Quantity{single: true} }

// IsSingle reports whether this is the single-key diagnostic quantity.
func (q Quantity) IsSingle() bool { return q.single }

// Count converts the quantity into a victim count given the resident-key
// count.
func (q Quantity) Count(resident int) int {
	if resident <= 0 {
		return 0
	}
	if q.single {
		return 1
	}
	n := int(math.Ceil(q.frac * float64(resident)))
	if n > resident {
		n = resident
	}
	return n
}

// Victim describes one eviction decision: either a single key or a
// contiguous key range, with the byte estimate the size function reported
// for it.
type Victim struct {
	Key   model.PointKey  // set for hashed victims
	Range *model.RangeKey // set for ordered victims
	Bytes int64
}

// Strategy selects victims from an index. Implementations must be
// deterministic given the same index history and rng state.
type Strategy interface {
	// PickKeys selects up to want individual victim keys from a hashed
	// backing.
	PickKeys(ix *index.KeyedIndex, want int, rng *rand.Rand) []model.PointKey
	// PickRanges selects victim ranges spanning up to want keys from an
	// ordered backing. Returned ranges are contiguous runs of resident
	// keys.
	PickRanges(ix *index.KeyedIndex, want int, rng *rand.Rand) []model.RangeKey
}

// RandomStrategy evicts uniformly at random: distinct random keys for
// hashed backings, one random contiguous run for ordered ones.
type RandomStrategy struct{}

// PickKeys samples want distinct resident keys without replacement.
func (RandomStrategy) PickKeys(ix *index.KeyedIndex, want int, rng *rand.Rand) []model.PointKey {
	n := ix.Len()
	if want > n {
		want = n
	}
	if want <= 0 {
		return nil
	}
	out := make([]model.PointKey, 0, want)
	for _, rank := range rng.Perm(n)[:want] {
		key, ok := ix.KeyAt(uint64(rank))
		if !ok {
			break
		}
		out = append(out, key)
	}
	return out
}

// PickRanges selects one contiguous run of want resident keys starting at
// a random position, shifted back from the end so the run never truncates.
// A single run keeps the resulting hole contiguous.
func (RandomStrategy) PickRanges(ix *index.KeyedIndex, want int, rng *rand.Rand) []model.RangeKey {
	n := ix.Len()
	if want > n {
		want = n
	}
	if want <= 0 {
		return nil
	}
	start := 0
	if n > want {
		start = rng.IntN(n - want + 1)
	}
	first, ok := ix.KeyAt(uint64(start))
	if !ok {
		return nil
	}
	run := ix.KeysFrom(first, want)
	if len(run) == 0 {
		return nil
	}
	return []model.RangeKey{{
		Lower: model.Included(run[0]),
		Upper: model.Included(run[len(run)-1]),
	}}
}
