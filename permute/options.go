package permute

import (
	"log/slog"

	"github.com/hupe1980/colcluster/resource"
)

// Options configures Apply and ApplyAll.
type Options struct {
	// Workers bounds the number of columns ApplyAll copies in parallel.
	// Extra workers are only started when Controller grants background slots.
	Workers int

	// Controller bounds the output memory and throttles checkpoint IO.
	// Nil means unlimited.
	Controller *resource.Controller

	// Checkpoint enables segment checkpointing. Nil disables it.
	Checkpoint *Checkpoint

	// Logger receives one event per applied column. Nil discards it.
	Logger *slog.Logger
}

// DefaultOptions returns single-worker options without checkpointing.
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
