// Package testutil provides testing utilities for lacuna.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe random source and generators for
// keys, rows and skewed key workloads.
//
// # Random Workload Generation
//
//	rng := testutil.NewRNG(seed)
//	keys := rng.Keys(1000)            // sequential int keys, shuffled
//	rows := rng.Rows(1000, 3)         // rows with an int id column
//	hot := rng.ZipfKeys(10000, 100, 1.5)  // 80/20 access pattern
package testutil
