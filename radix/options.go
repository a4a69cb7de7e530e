package radix

import (
	"log/slog"

	"github.com/hupe1980/colcluster/resource"
)

// MaxBits is the exclusive upper bound of the digit width.
const MaxBits = 32

// MaxBalancedBits bounds the digit width of Balanced so partition ids fit a byte.
const MaxBalancedBits = 8

// minRowsPerWorker keeps small inputs on one goroutine.
const minRowsPerWorker = 1 << 16

// Options configures a partitioning run.
type Options struct {
	// Workers is the maximum number of goroutines used by the histogram and
	// scatter phases. Extra workers are only started when Controller grants
	// background slots.
	Workers int

	// Controller bounds the histogram and map memory. Nil means unlimited.
	Controller *resource.Controller

	// Logger receives one event per run. Nil discards it.
	Logger *slog.Logger
}

// DefaultOptions returns single-worker options.
func DefaultOptions() Options {
	return Options{Workers: 1}
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return opts
}
