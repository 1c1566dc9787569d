// Package resource manages global resource limits: the memory budget for
// materialized state, the number of concurrent upquery fills, and the
// pace of eviction passes.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for managed memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxFillWorkers is the maximum number of concurrent upquery fills.
	// If 0, defaults to 1.
	MaxFillWorkers int64

	// EvictionsPerSec caps how often eviction passes may run.
	// If 0, unlimited.
	EvictionsPerSec float64

	// EvictionBurst is the burst size for eviction pacing.
	// If 0, defaults to 1.
	EvictionBurst int
}

// Controller manages global resources (memory, fill concurrency,
// eviction pacing).
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Fill concurrency
	fillSem *semaphore.Weighted

	// Eviction pacing
	evictLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxFillWorkers <= 0 {
		cfg.MaxFillWorkers = 1
	}
	if cfg.EvictionBurst <= 0 {
		cfg.EvictionBurst = 1
	}

	c := &Controller{
		cfg:     cfg,
		fillSem: semaphore.NewWeighted(cfg.MaxFillWorkers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.EvictionsPerSec > 0 {
		c.evictLimiter = rate.NewLimiter(rate.Limit(cfg.EvictionsPerSec), cfg.EvictionBurst)
	}

	return c
}

// AcquireMemory attempts to reserve memory.
// If a hard limit is configured and usage would exceed it,
// this blocks until memory is available or ctx is canceled.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory attempts to reserve memory without blocking.
// Returns true if acquired, false if the limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil {
		return true
	}
	if bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory. Releasing more than is
// currently reserved is clamped: eviction frees size estimates, and an
// estimate may overshoot what was actually admitted.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil {
		return
	}
	if used := c.memUsed.Load(); bytes > used {
		bytes = used
	}
	if bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireFill reserves a fill worker slot. Blocks if all slots are busy.
func (c *Controller) AcquireFill(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.fillSem.Acquire(ctx, 1)
}

// TryAcquireFill reserves a fill worker slot without blocking.
func (c *Controller) TryAcquireFill() bool {
	if c == nil {
		return true
	}
	return c.fillSem.TryAcquire(1)
}

// ReleaseFill releases a fill worker slot.
func (c *Controller) ReleaseFill() {
	if c == nil {
		return
	}
	c.fillSem.Release(1)
}

// AwaitEviction waits until the pacing limit allows another eviction
// pass, or ctx is canceled.
func (c *Controller) AwaitEviction(ctx context.Context) error {
	if c == nil || c.evictLimiter == nil {
		return nil
	}
	return c.evictLimiter.Wait(ctx)
}
