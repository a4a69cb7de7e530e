// Package hashindex implements a bucket-chained hash index for equality
// lookup over a column.
//
// The index keeps two row-id arrays: Hash, one slot per bucket holding the
// most recently chained row of that bucket, and Link, one slot per row
// pointing to the next row of the same bucket. Both are stored at the
// narrowest width (2, 4 or 8 bytes) able to address the column.
//
// Rows are chained in column order with Link[row] = Hash[b]; Hash[b] = row,
// so every chain lists its rows from the highest id to the lowest.
//
// Indexes degrade as rows are inserted. Every Options.CheckInterval
// insertions the mean chain length is checked against
// Options.ChainThreshold; a degraded index is dropped (RebuildLazy), rebuilt
// in place (RebuildEager) or kept (RebuildNever). Lazy wraps an index and
// rebuilds it on the next probe after it was dropped.
package hashindex
