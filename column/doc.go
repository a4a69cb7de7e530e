// Package column defines the in-memory columns that the index, partitioner,
// clusterer and permutation applier operate on.
//
// A column is an ordered sequence of typed values addressed by a dense
// 0-based row id. Two physical layouts exist:
//
//   - Fixed[T]: a contiguous slice of a fixed-width numeric type
//     (int8..int64, uint8..uint64, float32, float64).
//   - Varlen: variable-width byte strings stored back to back in one heap
//     with an offsets array, optionally carrying a precomputed xxhash64 per
//     row next to the value.
//
// Both layouts may carry a nullability marker per row, kept in a roaring
// bitmap. Null rows still occupy a slot (zero value or empty string).
//
// Row ids are limited to 32 bits: a column holds at most MaxRows rows.
// AppendAny refuses to grow a column beyond it and the hash index refuses
// to build over a longer source.
//
// Columns are not safe for concurrent mutation. Concurrent reads are safe
// as long as no writer is active.
package column
