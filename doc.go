// Package lacuna provides partially materialized, concurrently readable
// keyed state for streaming dataflow operators.
//
// A lacuna map stores multisets of rows under fixed-arity keys and knows
// which parts of its key-space are materialized. Keys that were never
// demanded, or whose state was evicted under memory pressure, are holes:
// reads report them as misses instead of silently returning stale or
// empty answers, and the caller fills exactly the missing keys or ranges
// before retrying.
//
// # Quick Start
//
//	def := index.Definition{Columns: []int{0}, Backing: index.Hashed}
//	v := lacuna.New(def, lacuna.WithPartial(true))
//	defer v.Close()
//
//	w := v.Writer()
//	w.Clear(key)          // demand the key
//	w.Insert(key, row)    // fill it
//	v.Publish()           // expose both to readers atomically
//
//	bag, found, err := v.Lookup(key)
//
// # Concurrency Model
//
// Each map has exactly one writer and any number of readers. Writes are
// queued on the write handle and become visible all at once on Publish:
// the map keeps two copies of its state, applies the queued operations to
// the standby copy, swaps it in with a single atomic pointer store, and
// catches the retired copy up once the last reader has left it. Readers
// never lock and never observe a half-applied batch.
//
// # Partial Materialization
//
// Maps built with WithPartial(true) only accept inserts for keys that are
// already demanded. Ordered backings additionally track filled intervals,
// so a range query either returns every matching row or the exact
// uncovered sub-ranges to fill. The Replayer wraps that miss-fill-retry
// loop and coalesces concurrent fills for the same gap.
//
// # Memory Pressure
//
// Eviction is explicit: Evict sheds a caller-chosen quantity of resident
// keys (contiguous key ranges on ordered backings), and Admit
// couples admission of new state to a byte budget, evicting under pacing
// until the new state fits.
package lacuna
