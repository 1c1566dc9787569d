package lacuna

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordLookup is called after each point lookup. hit reports whether
	// the key was resident, duration is the time taken.
	RecordLookup(hit bool, duration time.Duration)

	// RecordRangeLookup is called after each range lookup. misses is the
	// number of uncovered sub-ranges reported (0 when covered).
	RecordRangeLookup(misses int, duration time.Duration)

	// RecordPublish is called after each publish. ops is the number of
	// queued operations exposed.
	RecordPublish(ops int, duration time.Duration)

	// RecordEviction is called after each eviction pass. victims is the
	// number of victim descriptors, bytes the freed estimate.
	RecordEviction(victims int, bytes int64)

	// RecordFill is called after each fill attempt of a replay loop.
	RecordFill(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordLookup(bool, time.Duration)     {}
func (NoopMetricsCollector) RecordRangeLookup(int, time.Duration) {}
func (NoopMetricsCollector) RecordPublish(int, time.Duration)     {}
func (NoopMetricsCollector) RecordEviction(int, int64)            {}
func (NoopMetricsCollector) RecordFill(time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	LookupCount       atomic.Int64
	LookupHits        atomic.Int64
	LookupTotalNanos  atomic.Int64
	RangeLookupCount  atomic.Int64
	RangeLookupMisses atomic.Int64
	PublishCount      atomic.Int64
	PublishOps        atomic.Int64
	PublishTotalNanos atomic.Int64
	EvictionCount     atomic.Int64
	EvictedVictims    atomic.Int64
	EvictedBytes      atomic.Int64
	FillCount         atomic.Int64
	FillErrors        atomic.Int64
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(hit bool, duration time.Duration) {
	b.LookupCount.Add(1)
	b.LookupTotalNanos.Add(duration.Nanoseconds())
	if hit {
		b.LookupHits.Add(1)
	}
}

// RecordRangeLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRangeLookup(misses int, duration time.Duration) {
	b.RangeLookupCount.Add(1)
	b.RangeLookupMisses.Add(int64(misses))
}

// RecordPublish implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPublish(ops int, duration time.Duration) {
	b.PublishCount.Add(1)
	b.PublishOps.Add(int64(ops))
	b.PublishTotalNanos.Add(duration.Nanoseconds())
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction(victims int, bytes int64) {
	b.EvictionCount.Add(1)
	b.EvictedVictims.Add(int64(victims))
	b.EvictedBytes.Add(bytes)
}

// RecordFill implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFill(duration time.Duration, err error) {
	b.FillCount.Add(1)
	if err != nil {
		b.FillErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		LookupCount:       b.LookupCount.Load(),
		LookupHits:        b.LookupHits.Load(),
		LookupAvgNanos:    b.getAvgLookupNanos(),
		RangeLookupCount:  b.RangeLookupCount.Load(),
		RangeLookupMisses: b.RangeLookupMisses.Load(),
		PublishCount:      b.PublishCount.Load(),
		PublishOps:        b.PublishOps.Load(),
		EvictionCount:     b.EvictionCount.Load(),
		EvictedVictims:    b.EvictedVictims.Load(),
		EvictedBytes:      b.EvictedBytes.Load(),
		FillCount:         b.FillCount.Load(),
		FillErrors:        b.FillErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgLookupNanos() int64 {
	count := b.LookupCount.Load()
	if count == 0 {
		return 0
	}
	return b.LookupTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	LookupCount       int64
	LookupHits        int64
	LookupAvgNanos    int64
	RangeLookupCount  int64
	RangeLookupMisses int64
	PublishCount      int64
	PublishOps        int64
	EvictionCount     int64
	EvictedVictims    int64
	EvictedBytes      int64
	FillCount         int64
	FillErrors        int64
}
