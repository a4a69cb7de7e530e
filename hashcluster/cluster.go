package hashcluster

import (
	"time"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/internal/errs"
)

// Keys returns the masked bucket hash of every row of col, computed with
// the same hash functions as the hash index.
func Keys(col column.Column, mask uint64) []uint64 {
	keys := make([]uint64, col.Len())
	for i := range keys {
		keys[i] = col.HashRow(i) & mask
	}
	return keys
}

// Layout is the basket geometry of a run.
type Layout struct {
	// Baskets is the basket count N.
	Baskets int
	// BucketSize is the key range covered by one basket.
	BucketSize uint64
	// KeyRange is the exclusive upper bound of the keys.
	KeyRange uint64
	// PerBasket is the capacity of every basket but the last.
	PerBasket uint64
}

// Size derives the basket geometry for n rows with keys in [0,keyRange).
//
// N is a tenth of the memory pages, reduced so that every basket covers at
// least a page worth of row ids of the key range, and never more than n.
func Size(n int, keyRange uint64, pageSize, memoryPages int) Layout {
	keyRange = max(keyRange, 1)
	pageCapacity := uint64(max(pageSize/8, 1))

	count := uint64(max(memoryPages/10, 0))
	if lim := keyRange / pageCapacity; count > lim {
		count = lim
	}
	if count > uint64(n) {
		count = uint64(n)
	}
	if count == 0 {
		count = 1
	}
	return Layout{
		Baskets:    int(count),
		BucketSize: (keyRange + count - 1) / count,
		KeyRange:   keyRange,
		PerBasket:  uint64(n) / count,
	}
}

// Stats describes a clustering run.
type Stats struct {
	Layout
	Rows uint64
	// OverflowPlacements counts rows placed outside their home basket.
	OverflowPlacements uint64
	// OverflowEvents counts overflow basket searches.
	OverflowEvents uint64
}

// Result is the outcome of Run.
type Result struct {
	// Map[dest] is the source row placed at dest.
	Map   []uint64
	Stats Stats
}

// Run clusters rows by key and returns the gather map.
//
// It returns an error wrapping errs.ErrInvalidArgument when a key is not
// below Options.KeyRange, errs.ErrAllocationFailure when the map cannot be
// reserved and errs.ErrInternalInvariant when the baskets run out of room.
func Run(keys []uint64, optFns ...func(o *Options)) (*Result, error) {
	opts := applyOptions(optFns)
	start := time.Now()
	n := len(keys)

	keyRange := opts.KeyRange
	if keyRange == 0 {
		for _, k := range keys {
			keyRange = max(keyRange, k+1)
		}
	} else {
		for i, k := range keys {
			if k >= keyRange {
				return nil, errs.Invalid("key %d of row %d outside [0, %d)", k, i, keyRange)
			}
		}
	}

	layout := Size(n, keyRange, opts.PageSize, opts.MemoryPages)

	res := opts.Controller.Reserve()
	defer res.Release()
	size := 8*int64(n) + 24*int64(layout.Baskets)
	if err := res.Grow(size); err != nil {
		return nil, errs.NewBudgetError("hash cluster", size, err)
	}

	arena := NewArena(uint64(n), layout.Baskets)
	m := make([]uint64, n)
	for i, k := range keys {
		slot, _, err := arena.Place(int(k / layout.BucketSize))
		if err != nil {
			return nil, err
		}
		m[slot] = uint64(i)
	}

	stats := Stats{
		Layout:             layout,
		Rows:               uint64(n),
		OverflowPlacements: arena.overflow,
		OverflowEvents:     arena.events,
	}
	opts.Logger.Debug("hash cluster",
		"rows", n,
		"baskets", layout.Baskets,
		"bucket_size", layout.BucketSize,
		"key_range", layout.KeyRange,
		"overflow_rows", stats.OverflowPlacements,
		"overflow_events", stats.OverflowEvents,
		"duration", time.Since(start),
	)
	return &Result{Map: m, Stats: stats}, nil
}
