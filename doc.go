// Package colcluster provides the hash indexing and physical clustering
// machinery of an analytical column store.
//
// A Table holds named columns of equal cardinality. Each column gets a
// bucket-chained hash index that is built on the first lookup, updated by
// appends and rebuilt when its chains degrade. Tables can be reordered on
// disk-friendly lines:
//
//   - Cluster groups the rows whose key column hashes to the same bucket.
//   - Partition stably radix-partitions the rows on a digit of an integer
//     column.
//   - PartitionBalanced splits a sorted integer column into similarly sized
//     partitions without breaking runs of equal values.
//
// # Quick Start
//
//	tbl := colcluster.NewTable(colcluster.WithMemoryLimit(1 << 30))
//	_ = tbl.AddColumn("id", column.NewFixed(ids))
//	_ = tbl.AddColumn("name", column.VarlenFromStrings(names, true))
//
//	rows, _ := tbl.LookupAll(ctx, "name", "alice")
//	stats, _ := tbl.Cluster(ctx, "id")
//
// # Building Blocks
//
// The components are usable on their own:
//
//	hashindex    bucket-chained equality index
//	radix        histogram / scatter partitioner
//	hashcluster  overflow-aware N-way bucket reclusterer
//	permute      permutation applier with optional checkpointing
//	resource     memory budget, worker slots and IO throttling
//	blobstore    checkpoint sinks (memory, local disk, MinIO, S3)
//
// # Errors
//
// Failures unwrap to ErrAllocationFailure, ErrInvalidArgument or
// ErrInternalInvariant. Operations either complete or leave the table
// unchanged.
//
// # Observability
//
// Use WithLogger for structured slog logging and WithMetricsCollector for
// metrics. The prommetrics package exports them to Prometheus.
package colcluster
