package colcluster

import (
	"log/slog"

	"github.com/hupe1980/colcluster/blobstore"
	"github.com/hupe1980/colcluster/hashindex"
	"github.com/hupe1980/colcluster/permute"
	"github.com/hupe1980/colcluster/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	controller       *resource.Controller
	memoryLimit      int64
	workers          int
	indexOptions     []func(*hashindex.Options)
	checkpoint       *permute.Checkpoint
	pageSize         int
	memoryPages      int
}

// Option configures a Table.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := colcluster.NewJSONLogger(slog.LevelInfo)
//	tbl := colcluster.NewTable(colcluster.WithLogger(logger))
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

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &colcluster.BasicMetricsCollector{}
//	tbl := colcluster.NewTable(colcluster.WithMetricsCollector(metrics))
//	// ... use tbl ...
//	stats := metrics.GetStats()
//	fmt.Printf("Builds: %d, Avg latency: %dns\n", stats.BuildCount, stats.BuildAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithMemoryLimit bounds the working memory of index builds, partitioning
// and clustering maps and permuted columns. Operations that would exceed it
// fail with ErrAllocationFailure. Ignored when WithResourceController is set.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithResourceController shares a resource controller between tables.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithWorkers sets the number of goroutines used by parallel phases.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithIndexOptions configures the hash indexes of all columns.
//
// Example:
//
//	colcluster.WithIndexOptions(func(o *hashindex.Options) {
//	    o.RebuildPolicy = hashindex.RebuildEager
//	    o.ChainThreshold = 8
//	})
func WithIndexOptions(optFns ...func(*hashindex.Options)) Option {
	return func(o *options) {
		o.indexOptions = append(o.indexOptions, optFns...)
	}
}

// WithCheckpoint writes reordered columns to sink in segments of every rows
// while Cluster and Partition apply their permutation.
func WithCheckpoint(sink blobstore.BlobStore, every int, optFns ...func(*permute.Checkpoint)) Option {
	return func(o *options) {
		cp := &permute.Checkpoint{Every: every, Sink: sink}
		for _, fn := range optFns {
			fn(cp)
		}
		o.checkpoint = cp
	}
}

// WithPageSize overrides the memory page size used to size cluster baskets.
func WithPageSize(bytes int) Option {
	return func(o *options) {
		o.pageSize = bytes
	}
}

// WithMemoryPages overrides the physical page count used to size cluster
// baskets.
func WithMemoryPages(pages int) Option {
	return func(o *options) {
		o.memoryPages = pages
	}
}

func newOptions(optFns []Option) options {
	o := options{workers: 1}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.controller == nil {
		o.controller = resource.NewController(resource.Config{
			MemoryLimitBytes:     o.memoryLimit,
			MaxBackgroundWorkers: int64(o.workers),
		})
	}
	return o
}
