package lacuna

import (
	"log/slog"

	"github.com/lacunadb/lacuna/evict"
	"github.com/lacunadb/lacuna/model"
	"github.com/lacunadb/lacuna/resource"
	"github.com/lacunadb/lacuna/view"
)

type options struct {
	partial      bool
	strategy     evict.Strategy
	seed         uint64
	hasSeed      bool
	metrics      MetricsCollector
	logger       *Logger
	resources    *resource.Controller
	sizeFn       view.SizeFunc
	shedFraction float64
}

// Option configures New.
type Option func(*options)

// WithPartial marks the map partially materialized: inserts only land in
// keys that are already demanded, and evicted keys become holes that
// reads report as misses.
func WithPartial(p bool) Option {
	return func(o *options) {
		o.partial = p
	}
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

// WithSeed seeds victim selection, making eviction reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.hasSeed = true
	}
}

// WithResources attaches a resource controller. Admit reserves against
// its memory budget and eviction passes respect its pacing; without a
// controller Admit always succeeds.
func WithResources(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithSizeFunc sets the byte-size estimator used by eviction accounting.
// The map has no intrinsic notion of memory size; this estimate is the
// only currency Admit and Evict trade in.
func WithSizeFunc(fn view.SizeFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.sizeFn = fn
		}
	}
}

// WithShedFraction sets the fraction of resident keys each Admit-driven
// eviction pass sheds. Defaults to 0.1.
func WithShedFraction(frac float64) Option {
	return func(o *options) {
		if frac > 0 {
			o.shedFraction = frac
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &lacuna.BasicMetricsCollector{}
//	v := lacuna.New(def, lacuna.WithMetricsCollector(metrics))
//	// ... use v ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metrics = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// defaultSizeFunc is a rough per-entry estimate used when no WithSizeFunc
// is given: enough to make eviction accounting monotonic, not accurate.
func defaultSizeFunc(key model.PointKey, bag *model.Bag) int64 {
	return int64(bag.Len())*64 + int64(key.Arity())*16 + 32
}

func applyOptions(optFns []Option) options {
	o := options{
		strategy:     evict.RandomStrategy{},
		metrics:      NoopMetricsCollector{},
		logger:       NoopLogger(),
		sizeFn:       defaultSizeFunc,
		shedFraction: 0.1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
