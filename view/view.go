package view

import (
	"errors"
	"math/rand/v2"
	"runtime"
	"sync/atomic"

	"github.com/lacunadb/lacuna/evict"
	"github.com/lacunadb/lacuna/index"
	"github.com/lacunadb/lacuna/model"
)

var (
	// ErrNotReady is returned by reads against a map that has never been
	// published. Recoverable: retry after the writer's first Publish.
	ErrNotReady = errors.New("view not ready")

	// ErrClosed is returned by reads after the write handle was closed.
	ErrClosed = errors.New("view closed")
)

// SizeFunc estimates the resident byte size of one key's bag. The map has
// no intrinsic notion of memory size; eviction accounting is entirely the
// caller's estimate.
type SizeFunc func(key model.PointKey, bag *model.Bag) int64

// generation is one of the two copies of state. ready flips once, on the
// generation's first publish; readers is the count of lookups currently
// inside it.
type generation struct {
	idx     *index.KeyedIndex
	meta    any
	ready   bool
	readers atomic.Int64
}

// shared is the state common to the write handle and all read handles.
// active is nil once the write side has been closed.
type shared struct {
	active atomic.Pointer[generation]
}

type options struct {
	partial  bool
	strategy evict.Strategy
	seed     uint64
}

// Option configures New.
type Option func(*options)

// WithPartial marks the map partially materialized: queued inserts only
// land in keys that are already demanded.
func WithPartial(p bool) Option {
	return func(o *options) { o.partial = p }
}

// WithStrategy sets the eviction strategy. Defaults to
// evict.RandomStrategy.
func WithStrategy(s evict.Strategy) Option {
	return func(o *options) {
		if s != nil {
			o.strategy = s
		}
	}
}

// WithSeed seeds victim selection, making eviction reproducible in tests.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// New creates an unpublished map over an index with the given definition.
// Exactly one write handle exists per map; the read handle may be cloned
// freely. Reads fail with ErrNotReady until the first Publish.
func New(def index.Definition, opts ...Option) (*WriteHandle, *ReadHandle) {
	o := options{strategy: evict.RandomStrategy{}, seed: rand.Uint64()}
	for _, opt := range opts {
		opt(&o)
	}
	sh := &shared{}
	sh.active.Store(&generation{idx: index.New(def)})
	w := &WriteHandle{
		sh:       sh,
		standby:  &generation{idx: index.New(def)},
		partial:  o.partial,
		strategy: o.strategy,
		rng:      rand.New(rand.NewPCG(o.seed, o.seed)),
	}
	return w, &ReadHandle{sh: sh}
}

// WriteHandle is the single mutator of a map. It is not safe for
// concurrent use; the one writer owns it.
type WriteHandle struct {
	sh       *shared
	standby  *generation
	log      []op
	partial  bool
	strategy evict.Strategy
	rng      *rand.Rand
	closed   bool
}

// Insert queues storing row under key. Visible after Publish.
func (w *WriteHandle) Insert(key model.PointKey, row *model.Row) {
	w.mustOpen("Insert")
	w.log = append(w.log, op{kind: opInsert, key: key, row: row})
}

// InsertRange queues marking rng filled without storing rows.
func (w *WriteHandle) InsertRange(rng model.RangeKey) {
	w.mustOpen("InsertRange")
	w.log = append(w.log, op{kind: opInsertRange, rng: rng})
}

// InsertFullRange queues marking the whole key-space filled.
func (w *WriteHandle) InsertFullRange() {
	w.mustOpen("InsertFullRange")
	w.log = append(w.log, op{kind: opInsertFull})
}

// Clear queues emptying key's bag while keeping the key resident, so a
// hole being refilled does not drop and recreate its capacity.
func (w *WriteHandle) Clear(key model.PointKey) {
	w.mustOpen("Clear")
	w.log = append(w.log, op{kind: opClear, key: key})
}

// RemoveValue queues removing one occurrence of the row whose content
// equals vals from the bag at key.
func (w *WriteHandle) RemoveValue(key model.PointKey, vals []model.Value) {
	w.mustOpen("RemoveValue")
	w.log = append(w.log, op{kind: opRemoveValue, key: key, vals: vals})
}

// RemoveEntry queues evicting key: its rows are dropped and the key
// becomes a hole.
func (w *WriteHandle) RemoveEntry(key model.PointKey) {
	w.mustOpen("RemoveEntry")
	w.log = append(w.log, op{kind: opRemoveEntry, key: key})
}

// RemoveRange queues evicting every key in rng and the filled-interval
// marking over it.
func (w *WriteHandle) RemoveRange(rng model.RangeKey) {
	w.mustOpen("RemoveRange")
	w.log = append(w.log, op{kind: opRemoveRange, rng: rng})
}

// Purge queues dropping every key.
func (w *WriteHandle) Purge() {
	w.mustOpen("Purge")
	w.log = append(w.log, op{kind: opPurge})
}

// SetMetadata queues replacing the map's opaque metadata slot. Readers see
// the new value only after Publish.
func (w *WriteHandle) SetMetadata(meta any) {
	w.mustOpen("SetMetadata")
	w.log = append(w.log, op{kind: opSetMeta, meta: meta})
}

// HasPending reports whether operations are queued but not yet published.
func (w *WriteHandle) HasPending() bool { return len(w.log) > 0 }

// Pending returns the number of queued operations.
func (w *WriteHandle) Pending() int { return len(w.log) }

// Publish atomically exposes all queued operations to readers.
//
// The pending log is applied to the standby generation, the generations
// swap, and once every reader has left the retired generation the same log
// is replayed onto it. The replay is safe to run as a plain re-application:
// row handles shared with the retired generation stay alive as long as any
// reader holds them. Publish blocks only while readers are still inside
// the generation being retired.
func (w *WriteHandle) Publish() {
	w.mustOpen("Publish")
	for _, o := range w.log {
		o.apply(w.standby, w.partial)
	}
	w.standby.ready = true

	old := w.sh.active.Swap(w.standby)
	w.standby = old
	for old.readers.Load() > 0 {
		runtime.Gosched()
	}

	for _, o := range w.log {
		o.apply(w.standby, w.partial)
	}
	w.standby.ready = true
	w.log = w.log[:0]
}

// EvictKeys publishes pending operations to get a consistent view, asks
// the strategy for victims, queues their removal and returns the byte
// estimate and victim descriptors. The removals are NOT yet visible; the
// caller publishes again to expose them. Ordered backings shed contiguous
// ranges, hashed backings individual keys.
func (w *WriteHandle) EvictKeys(q evict.Quantity, sizeFn SizeFunc) (int64, []evict.Victim) {
	w.mustOpen("EvictKeys")
	w.Publish()

	ix := w.standby.idx // level with the active generation after Publish
	want := q.Count(ix.Len())
	if want == 0 {
		return 0, nil
	}

	var (
		victims []evict.Victim
		freed   int64
	)
	if ix.Definition().Backing == index.Ordered {
		for _, vr := range w.strategy.PickRanges(ix, want, w.rng) {
			var bytes int64
			if sizeFn != nil {
				for key, bag := range ix.EntriesInRange(vr) {
					bytes += sizeFn(key, bag)
				}
			}
			r := vr
			victims = append(victims, evict.Victim{Range: &r, Bytes: bytes})
			freed += bytes
			w.log = append(w.log, op{kind: opRemoveRange, rng: vr})
		}
	} else {
		for _, key := range w.strategy.PickKeys(ix, want, w.rng) {
			var bytes int64
			if sizeFn != nil {
				if bag, ok := ix.Lookup(key); ok {
					bytes = sizeFn(key, bag)
				}
			}
			victims = append(victims, evict.Victim{Key: key, Bytes: bytes})
			freed += bytes
			w.log = append(w.log, op{kind: opRemoveEntry, key: key})
		}
	}
	return freed, victims
}

// SizeEstimate sums sizeFn over every resident key of the last published
// state. Call after Publish for an up-to-date figure.
func (w *WriteHandle) SizeEstimate(sizeFn SizeFunc) int64 {
	w.mustOpen("SizeEstimate")
	var total int64
	for key, bag := range w.standby.idx.Entries() {
		total += sizeFn(key, bag)
	}
	return total
}

// Close retires the map: every outstanding and future read observes
// ErrClosed immediately. Queued but unpublished operations are discarded.
// Close is idempotent.
func (w *WriteHandle) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.log = nil
	w.sh.active.Store(nil)
}

func (w *WriteHandle) mustOpen(opName string) {
	if w.closed {
		panic("lacuna/view: " + opName + " on a closed write handle")
	}
}

// ReadHandle reads the last-published snapshot. Handles are safe for
// concurrent use and cheap to clone; clones exist so each consumer can own
// its handle.
type ReadHandle struct {
	sh *shared
}

// Clone returns an independent handle onto the same map.
func (r *ReadHandle) Clone() *ReadHandle { return &ReadHandle{sh: r.sh} }

// enter pins the active generation against retirement. Every return path
// must release via leave.
func (r *ReadHandle) enter() (*generation, error) {
	for {
		g := r.sh.active.Load()
		if g == nil {
			return nil, ErrClosed
		}
		g.readers.Add(1)
		if r.sh.active.Load() == g {
			return g, nil
		}
		// Lost a race with Publish; the writer may already be mutating
		// this generation. Back off and take the new active.
		g.readers.Add(-1)
	}
}

func leave(g *generation) { g.readers.Add(-1) }

// Ready reports whether the map has been published at least once and is
// still open.
func (r *ReadHandle) Ready() bool {
	g, err := r.enter()
	if err != nil {
		return false
	}
	defer leave(g)
	return g.ready
}

// Lookup returns the bag published for key. found=false with a nil error
// means the key is a hole (or, on hashed backings, simply absent). The
// returned bag is the caller's to keep: it is an independent clone sharing
// only immutable row handles.
func (r *ReadHandle) Lookup(key model.PointKey) (*model.Bag, bool, error) {
	g, err := r.enter()
	if err != nil {
		return nil, false, err
	}
	defer leave(g)
	if !g.ready {
		return nil, false, ErrNotReady
	}
	bag, ok := g.idx.Lookup(key)
	if !ok {
		return nil, false, nil
	}
	return bag.Clone(), true, nil
}

// RangeResult is the outcome of a range lookup: either Rows (possibly
// empty) over a fully covered range, or the exact uncovered sub-ranges in
// Misses for the caller to fill and retry.
type RangeResult struct {
	Rows   []*model.Row
	Misses []model.RangeKey
}

// Covered reports whether the range was fully materialized.
func (rr RangeResult) Covered() bool { return len(rr.Misses) == 0 }

// LookupRange returns every published row in rng if the whole range is
// covered, and the precise misses otherwise. Row handles are shared and
// immutable; the slice is the caller's.
func (r *ReadHandle) LookupRange(rng model.RangeKey) (RangeResult, error) {
	g, err := r.enter()
	if err != nil {
		return RangeResult{}, err
	}
	defer leave(g)
	if !g.ready {
		return RangeResult{}, ErrNotReady
	}
	seq, misses := g.idx.LookupRange(rng)
	if misses != nil {
		return RangeResult{Misses: misses}, nil
	}
	var rows []*model.Row
	for row := range seq {
		rows = append(rows, row)
	}
	return RangeResult{Rows: rows}, nil
}

// Len returns the number of resident keys in the published snapshot.
func (r *ReadHandle) Len() (int, error) {
	g, err := r.enter()
	if err != nil {
		return 0, err
	}
	defer leave(g)
	if !g.ready {
		return 0, ErrNotReady
	}
	return g.idx.Len(), nil
}

// RowCount returns the number of published rows including duplicates.
func (r *ReadHandle) RowCount() (int, error) {
	g, err := r.enter()
	if err != nil {
		return 0, err
	}
	defer leave(g)
	if !g.ready {
		return 0, ErrNotReady
	}
	return g.idx.RowCount(), nil
}

// Metadata returns the published metadata slot.
func (r *ReadHandle) Metadata() (any, error) {
	g, err := r.enter()
	if err != nil {
		return nil, err
	}
	defer leave(g)
	if !g.ready {
		return nil, ErrNotReady
	}
	return g.meta, nil
}
