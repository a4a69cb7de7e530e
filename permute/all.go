package permute

import (
	"context"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/internal/errs"
)

// ApplyAll reorders the aligned columns cols with the same map.
//
// Every column must have len(m) rows; all mismatches are reported together
// before anything is copied. Either every column is reordered or an error is
// returned and no output is produced. Checkpoint segments are named after
// the map keys.
func ApplyAll(ctx context.Context, cols map[string]column.Column, m []uint64, dir Direction, optFns ...func(o *Options)) (map[string]column.Column, error) {
	opts := applyOptions(optFns)

	names := slices.Sorted(maps.Keys(cols))
	lens := make([]int, len(names))
	for i, name := range names {
		lens[i] = cols[name].Len()
	}
	if err := errs.Aligned(len(m), names, lens); err != nil {
		return nil, err
	}
	if dir != Scatter && dir != Gather {
		return nil, errs.Invalid("unknown direction %d", dir)
	}
	if err := Validate(m); err != nil {
		return nil, err
	}

	workers := 1
	for workers < min(opts.Workers, len(names)) && opts.Controller.TryAcquireBackground() {
		workers++
	}
	defer func() {
		for range workers - 1 {
			opts.Controller.ReleaseBackground()
		}
	}()

	out := make([]column.Column, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			c, err := apply(gctx, name, cols[name], m, dir, opts)
			if err != nil {
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := make(map[string]column.Column, len(names))
	for i, name := range names {
		res[name] = out[i]
	}
	return res, nil
}
