package hashindex

import (
	"log/slog"

	"github.com/hupe1980/colcluster/resource"
)

// RebuildPolicy selects what happens when an index is found degraded.
type RebuildPolicy int

const (
	// RebuildLazy drops the index; Lazy rebuilds it on the next probe.
	RebuildLazy RebuildPolicy = iota
	// RebuildEager rebuilds the index inside the insert that found it degraded.
	RebuildEager
	// RebuildNever keeps the degraded index.
	RebuildNever
)

func (p RebuildPolicy) String() string {
	switch p {
	case RebuildLazy:
		return "lazy"
	case RebuildEager:
		return "eager"
	case RebuildNever:
		return "never"
	default:
		return "unknown"
	}
}

const (
	// DefaultChainThreshold is the mean chain length above which an index is degraded.
	DefaultChainThreshold = 4.0
	// DefaultCheckInterval is the number of inserts between degradation checks.
	DefaultCheckInterval = 1024
)

// Options configures an index.
type Options struct {
	ChainThreshold float64
	CheckInterval  int
	RebuildPolicy  RebuildPolicy

	// Controller bounds the memory of the Hash and Link arrays. Nil means
	// unlimited.
	Controller *resource.Controller

	// Logger receives build and rebuild events. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns the default index options.
func DefaultOptions() Options {
	return Options{
		ChainThreshold: DefaultChainThreshold,
		CheckInterval:  DefaultCheckInterval,
		RebuildPolicy:  RebuildLazy,
	}
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ChainThreshold <= 0 {
		opts.ChainThreshold = DefaultChainThreshold
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return opts
}
