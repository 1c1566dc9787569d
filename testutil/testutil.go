package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/lacunadb/lacuna/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float64 returns, as a float64, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Keys generates n single-column int keys covering [0, n), shuffled.
func (r *RNG) Keys(n int) []model.PointKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]model.PointKey, n)
	for i, p := range r.rand.Perm(n) {
		keys[i] = model.KeyOf(model.Int(int64(p)))
	}
	return keys
}

// Rows generates n rows of the given width. Column 0 is a sequential int
// id, column 1 (if present) a short text payload, and any further
// columns are random ints. Width must be at least 1.
func (r *RNG) Rows(n, width int) []*model.Row {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]*model.Row, n)
	for i := range n {
		vals := make([]model.Value, width)
		vals[0] = model.Int(int64(i))
		if width > 1 {
			vals[1] = model.Text(fmt.Sprintf("row-%d", i))
		}
		for j := 2; j < width; j++ {
			vals[j] = model.Int(r.rand.Int63n(1000))
		}
		rows[i] = model.NewRow(vals...)
	}
	return rows
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) is proportional to 1/k^s where s is the skew
// parameter. s=1.0 gives standard Zipf, s=1.5 gives heavy-tail (80/20
// rule). This is how real cache workloads are distributed.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	// Normalization constant (harmonic number with exponent s).
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Inverse transform sampling.
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1 // 0-indexed
		}
	}

	return n - 1
}

// ZipfKeys generates n single-column int key accesses over a key-space of
// keySpace keys with Zipfian skew s: a few keys dominate, matching the
// access pattern partial materialization exists to exploit.
func (r *RNG) ZipfKeys(n, keySpace int, s float64) []model.PointKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]model.PointKey, n)
	for i := range n {
		keys[i] = model.KeyOf(model.Int(int64(r.zipfLocked(keySpace, s))))
	}
	return keys
}
