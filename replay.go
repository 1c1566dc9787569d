package lacuna

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lacunadb/lacuna/model"
)

// KeyFillFunc fills one missing key: it issues an upquery upstream,
// writes the results through the map's writer and publishes them. After a
// successful fill the key must be resident (Clear then Insert, so an
// empty upquery result still confirms absence).
type KeyFillFunc func(ctx context.Context, key model.PointKey) error

// RangeFillFunc fills one missing key range the same way, marking the
// range filled (InsertRange) so empty stretches stay covered.
type RangeFillFunc func(ctx context.Context, miss model.RangeKey) error

// Replayer drives the miss-fill-retry loop over a view. Concurrent
// lookups that miss on the same key or gap share one fill: the fill
// functions are deduplicated per encoded target while in flight. Fills
// run under the view's resource controller, bounded by its fill-worker
// limit.
//
// A Replayer is safe for concurrent use.
type Replayer struct {
	view      *View
	fillKey   KeyFillFunc
	fillRange RangeFillFunc
	group     singleflight.Group
	attempts  int
}

// ReplayerOption configures NewReplayer.
type ReplayerOption func(*Replayer)

// WithMaxAttempts caps how many lookup-fill rounds a replayed read runs
// before giving up with ErrUnfilled. Defaults to 3: a fill can race an
// eviction, so one retry is not always enough.
func WithMaxAttempts(n int) ReplayerOption {
	return func(rp *Replayer) {
		if n > 0 {
			rp.attempts = n
		}
	}
}

// NewReplayer wraps v with fill functions. fillRange may be nil for
// hashed maps, which never report range misses. A miss whose fill
// function is nil panics: wiring a lookup path without its fill is a
// configuration error, not a runtime condition.
func NewReplayer(v *View, fillKey KeyFillFunc, fillRange RangeFillFunc, optFns ...ReplayerOption) *Replayer {
	rp := &Replayer{
		view:      v,
		fillKey:   fillKey,
		fillRange: fillRange,
		attempts:  3,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(rp)
		}
	}
	return rp
}

// Lookup returns the bag for key, filling the key if it is a hole.
// Returns ErrUnfilled when the key is still missing after the allowed
// number of fill rounds.
func (rp *Replayer) Lookup(ctx context.Context, key model.PointKey) (*model.Bag, error) {
	for range rp.attempts {
		bag, found, err := rp.view.Lookup(key)
		if err != nil {
			return nil, err
		}
		if found {
			return bag, nil
		}
		if rp.fillKey == nil {
			panic("lacuna: point lookup missed but no KeyFillFunc is configured")
		}
		if err := rp.runFill(ctx, key.Encode(), key.String(), func(ctx context.Context) error {
			return rp.fillKey(ctx, key)
		}); err != nil {
			return nil, &ErrUnfilled{Key: key, cause: err}
		}
	}
	return nil, &ErrUnfilled{Key: key}
}

// LookupRange returns every row in rng, filling uncovered sub-ranges as
// they are reported. Returns ErrUnfilled when gaps remain after the
// allowed number of fill rounds.
func (rp *Replayer) LookupRange(ctx context.Context, rng model.RangeKey) ([]*model.Row, error) {
	var lastMisses []model.RangeKey
	for range rp.attempts {
		res, err := rp.view.LookupRange(rng)
		if err != nil {
			return nil, err
		}
		if res.Covered() {
			return res.Rows, nil
		}
		lastMisses = res.Misses
		if rp.fillRange == nil {
			panic("lacuna: range lookup missed but no RangeFillFunc is configured")
		}
		for _, miss := range res.Misses {
			if err := rp.runFill(ctx, miss.Encode(), miss.String(), func(ctx context.Context) error {
				return rp.fillRange(ctx, miss)
			}); err != nil {
				return nil, &ErrUnfilled{Misses: res.Misses, cause: err}
			}
		}
	}
	return nil, &ErrUnfilled{Misses: lastMisses}
}

// runFill executes one fill under singleflight deduplication, the fill
// worker limit, metrics and logging. target is the injective encoding
// used for deduplication; label is its printable form.
func (rp *Replayer) runFill(ctx context.Context, target, label string, fill func(context.Context) error) error {
	_, err, _ := rp.group.Do(target, func() (any, error) {
		if err := rp.view.res.AcquireFill(ctx); err != nil {
			return nil, err
		}
		defer rp.view.res.ReleaseFill()

		start := time.Now()
		err := fill(ctx)
		rp.view.metrics.RecordFill(time.Since(start), err)
		rp.view.logger.LogFill(ctx, label, err)
		return nil, err
	})
	return err
}
