package hashcluster

import (
	"log/slog"

	"github.com/hupe1980/colcluster/resource"
)

// defaultMemoryPages assumes 4 GiB of 4 KiB pages when the OS cannot tell.
const defaultMemoryPages = 1 << 20

// Options configures a clustering run.
type Options struct {
	// PageSize is the memory page size in bytes. 0 asks the OS.
	PageSize int
	// MemoryPages is the number of physical memory pages. 0 asks the OS.
	MemoryPages int
	// KeyRange is the exclusive upper bound of the keys. 0 derives it from
	// the largest key.
	KeyRange uint64

	// Controller bounds the map and basket memory. Nil means unlimited.
	Controller *resource.Controller
	// Logger receives one event per run. Nil discards it.
	Logger *slog.Logger
}

// DefaultOptions returns options that take page geometry from the OS.
func DefaultOptions() Options {
	return Options{}
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = osPageSize()
	}
	if opts.MemoryPages <= 0 {
		opts.MemoryPages = osMemoryPages()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return opts
}
