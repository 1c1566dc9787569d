package lacuna

import (
	"context"
	"fmt"
	"time"

	"github.com/lacunadb/lacuna/evict"
	"github.com/lacunadb/lacuna/index"
	"github.com/lacunadb/lacuna/model"
	"github.com/lacunadb/lacuna/resource"
	"github.com/lacunadb/lacuna/view"
)

// View couples one materialized map with its eviction strategy, resource
// budget, metrics and logging. The write-side methods (Publish, Admit,
// Evict, Close) belong to the single writer; the read-side methods
// (Lookup, LookupRange, Len) are safe for concurrent use.
type View struct {
	def     index.Definition
	writer  *view.WriteHandle
	reader  *view.ReadHandle
	res     *resource.Controller
	metrics MetricsCollector
	logger  *Logger
	sizeFn  view.SizeFunc
	shed    float64
}

// New creates an unpublished map over an index with the given definition.
// Reads fail with ErrNotReady until the first Publish.
func New(def index.Definition, optFns ...Option) *View {
	o := applyOptions(optFns)

	viewOpts := []view.Option{
		view.WithPartial(o.partial),
		view.WithStrategy(o.strategy),
	}
	if o.hasSeed {
		viewOpts = append(viewOpts, view.WithSeed(o.seed))
	}
	w, r := view.New(def, viewOpts...)

	return &View{
		def:     def,
		writer:  w,
		reader:  r,
		res:     o.resources,
		metrics: o.metrics,
		logger:  o.logger.WithIndex(def),
		sizeFn:  o.sizeFn,
		shed:    o.shedFraction,
	}
}

// Definition returns the index definition the map was built over.
func (v *View) Definition() index.Definition { return v.def }

// Writer exposes the raw write handle for queueing operations. The
// facade's Publish should still be used to expose them, so that metrics
// and logging stay accurate.
func (v *View) Writer() *view.WriteHandle { return v.writer }

// Reader returns an independent read handle onto the map, for consumers
// that want snapshot reads without the facade.
func (v *View) Reader() *view.ReadHandle { return v.reader.Clone() }

// Publish atomically exposes all queued write operations to readers.
func (v *View) Publish() {
	ops := v.writer.Pending()
	start := time.Now()
	v.writer.Publish()
	v.metrics.RecordPublish(ops, time.Since(start))
	v.logger.LogPublish(context.Background(), ops)
}

// Lookup returns the published bag for key. found=false with a nil error
// means the key is a hole: fill it (see Replayer) and retry.
func (v *View) Lookup(key model.PointKey) (*model.Bag, bool, error) {
	start := time.Now()
	bag, found, err := v.reader.Lookup(key)
	if err != nil {
		return nil, false, err
	}
	v.metrics.RecordLookup(found, time.Since(start))
	return bag, found, nil
}

// LookupRange returns every published row in rng if the range is fully
// covered, and the precise uncovered sub-ranges otherwise.
func (v *View) LookupRange(rng model.RangeKey) (view.RangeResult, error) {
	start := time.Now()
	res, err := v.reader.LookupRange(rng)
	if err != nil {
		return view.RangeResult{}, err
	}
	v.metrics.RecordRangeLookup(len(res.Misses), time.Since(start))
	return res, nil
}

// Len returns the number of resident keys in the published snapshot.
func (v *View) Len() (int, error) { return v.reader.Len() }

// Evict publishes pending writes, sheds the requested quantity of
// resident state and publishes the removals. Returns the freed byte
// estimate and the victim descriptors, which the caller forwards
// downstream as eviction notices.
func (v *View) Evict(q evict.Quantity) (int64, []evict.Victim) {
	freed, victims := v.writer.EvictKeys(q, v.sizeFn)
	v.writer.Publish()
	v.metrics.RecordEviction(len(victims), freed)
	v.logger.LogEviction(context.Background(), len(victims), freed)
	return freed, victims
}

// Admit reserves bytes of the memory budget for incoming state, evicting
// paced fractions of the map until the reservation fits. Fails with
// ErrBudgetExceeded once nothing is left to shed, or with the context's
// error if pacing outlives ctx. Without a resource controller Admit
// always succeeds.
func (v *View) Admit(ctx context.Context, bytes int64) error {
	evictions := 0
	for {
		if v.res.TryAcquireMemory(bytes) {
			v.logger.LogAdmit(ctx, bytes, evictions, nil)
			return nil
		}
		if err := v.res.AwaitEviction(ctx); err != nil {
			v.logger.LogAdmit(ctx, bytes, evictions, err)
			return err
		}
		freed, victims := v.Evict(evict.Fraction(v.shed))
		if len(victims) == 0 {
			err := fmt.Errorf("%w: %d bytes requested", ErrBudgetExceeded, bytes)
			v.logger.LogAdmit(ctx, bytes, evictions, err)
			return err
		}
		v.res.ReleaseMemory(freed)
		evictions++
	}
}

// Release returns bytes of the memory budget, for state that left the
// map through normal removals rather than eviction.
func (v *View) Release(bytes int64) {
	v.res.ReleaseMemory(bytes)
}

// MemoryUsage returns the bytes currently reserved against the budget.
func (v *View) MemoryUsage() int64 { return v.res.MemoryUsage() }

// SizeEstimate sums the size estimator over the last published state.
func (v *View) SizeEstimate() int64 {
	return v.writer.SizeEstimate(v.sizeFn)
}

// Close retires the map: every outstanding and future read observes
// ErrClosed. Idempotent.
func (v *View) Close() {
	v.writer.Close()
}
