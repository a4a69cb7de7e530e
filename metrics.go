package colcluster

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// prommetrics package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordBuild is called after each hash index build or rebuild.
	RecordBuild(rows int, duration time.Duration, err error)

	// RecordProbe is called after each lookup.
	RecordProbe(duration time.Duration, err error)

	// RecordInsert is called once per index updated by an appended row.
	RecordInsert(duration time.Duration, err error)

	// RecordCluster is called after each hash clustering run. overflow is
	// the number of rows placed outside their home basket.
	RecordCluster(rows int, overflow uint64, duration time.Duration, err error)

	// RecordPartition is called after each radix partitioning run.
	RecordPartition(rows, partitions int, duration time.Duration, err error)

	// RecordApply is called after a permutation was applied to a table.
	RecordApply(columns, rows int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)           {}
func (NoopMetricsCollector) RecordProbe(time.Duration, error)                {}
func (NoopMetricsCollector) RecordInsert(time.Duration, error)               {}
func (NoopMetricsCollector) RecordCluster(int, uint64, time.Duration, error) {}
func (NoopMetricsCollector) RecordPartition(int, int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordApply(int, int, time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount       atomic.Int64
	BuildErrors      atomic.Int64
	BuildRows        atomic.Int64
	BuildTotalNanos  atomic.Int64
	ProbeCount       atomic.Int64
	ProbeErrors      atomic.Int64
	ProbeTotalNanos  atomic.Int64
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	ClusterCount     atomic.Int64
	ClusterErrors    atomic.Int64
	ClusterRows      atomic.Int64
	ClusterOverflow  atomic.Int64
	PartitionCount   atomic.Int64
	PartitionErrors  atomic.Int64
	ApplyCount       atomic.Int64
	ApplyErrors      atomic.Int64
	ApplyColumnsRows atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(rows int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildRows.Add(int64(rows))
}

// RecordProbe implements MetricsCollector.
func (b *BasicMetricsCollector) RecordProbe(duration time.Duration, err error) {
	b.ProbeCount.Add(1)
	b.ProbeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ProbeErrors.Add(1)
	}
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(_ time.Duration, err error) {
	b.InsertCount.Add(1)
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordCluster implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCluster(rows int, overflow uint64, _ time.Duration, err error) {
	b.ClusterCount.Add(1)
	if err != nil {
		b.ClusterErrors.Add(1)
		return
	}
	b.ClusterRows.Add(int64(rows))
	b.ClusterOverflow.Add(int64(overflow))
}

// RecordPartition implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPartition(_, _ int, _ time.Duration, err error) {
	b.PartitionCount.Add(1)
	if err != nil {
		b.PartitionErrors.Add(1)
	}
}

// RecordApply implements MetricsCollector.
func (b *BasicMetricsCollector) RecordApply(columns, rows int, _ time.Duration, err error) {
	b.ApplyCount.Add(1)
	if err != nil {
		b.ApplyErrors.Add(1)
		return
	}
	b.ApplyColumnsRows.Add(int64(columns) * int64(rows))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:       b.BuildCount.Load(),
		BuildErrors:      b.BuildErrors.Load(),
		BuildRows:        b.BuildRows.Load(),
		BuildAvgNanos:    avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		ProbeCount:       b.ProbeCount.Load(),
		ProbeErrors:      b.ProbeErrors.Load(),
		ProbeAvgNanos:    avg(b.ProbeTotalNanos.Load(), b.ProbeCount.Load()),
		InsertCount:      b.InsertCount.Load(),
		InsertErrors:     b.InsertErrors.Load(),
		ClusterCount:     b.ClusterCount.Load(),
		ClusterErrors:    b.ClusterErrors.Load(),
		ClusterRows:      b.ClusterRows.Load(),
		ClusterOverflow:  b.ClusterOverflow.Load(),
		PartitionCount:   b.PartitionCount.Load(),
		PartitionErrors:  b.PartitionErrors.Load(),
		ApplyCount:       b.ApplyCount.Load(),
		ApplyErrors:      b.ApplyErrors.Load(),
		ApplyColumnsRows: b.ApplyColumnsRows.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount       int64
	BuildErrors      int64
	BuildRows        int64
	BuildAvgNanos    int64
	ProbeCount       int64
	ProbeErrors      int64
	ProbeAvgNanos    int64
	InsertCount      int64
	InsertErrors     int64
	ClusterCount     int64
	ClusterErrors    int64
	ClusterRows      int64
	ClusterOverflow  int64
	PartitionCount   int64
	PartitionErrors  int64
	ApplyCount       int64
	ApplyErrors      int64
	ApplyColumnsRows int64
}
