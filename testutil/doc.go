// Package testutil provides deterministic data generators for tests and
// benchmarks.
//
// This package is intended for use in tests and benchmarks only.
//
//	rng := testutil.NewRNG(seed)
//	keys := rng.Int32s(1_000_000, 1000)  // [0, 1000)
//	skew := rng.ZipfInts(10_000, 64, 1.5)
//	want := testutil.Positions(keys, 42) // brute-force matches
package testutil
