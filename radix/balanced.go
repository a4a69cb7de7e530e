package radix

import (
	"time"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/internal/errs"
)

// BalancedResult is the outcome of Balanced.
type BalancedResult struct {
	// IDs[i] is the partition of row i.
	IDs []uint8
	// Starts[p] is the first row of partition p; empty partitions start at
	// the end of the column.
	Starts []uint64
	// Counts holds the number of rows per partition.
	Counts []uint64
}

// Partitions returns the number of partitions.
func (r *BalancedResult) Partitions() int { return len(r.Counts) }

// Balanced splits a sorted column into 1<<bits partitions.
//
// The running row count must reach (p+1)*⌊n/parts⌋ and the value must
// change before the scan moves on from partition p, so equal values always
// share a partition. Unsorted input and bits above MaxBalancedBits are
// rejected with errs.ErrInvalidArgument.
func Balanced[T column.Integer](col *column.Fixed[T], bits int, optFns ...func(o *Options)) (*BalancedResult, error) {
	if err := checkBits(bits, MaxBalancedBits+1); err != nil {
		return nil, err
	}
	if !col.IsSorted() {
		return nil, errs.Invalid("balanced split needs sorted input")
	}
	opts := applyOptions(optFns)
	start := time.Now()

	vals := col.Values()
	n := len(vals)
	parts := 1 << bits

	res := opts.Controller.Reserve()
	defer res.Release()
	size := int64(n) + 16*int64(parts)
	if err := res.Grow(size); err != nil {
		return nil, errs.NewBudgetError("radix balanced", size, err)
	}

	out := &BalancedResult{
		IDs:    make([]uint8, n),
		Starts: make([]uint64, parts),
		Counts: make([]uint64, parts),
	}
	psz := uint64(n / parts)
	h := 0
	for i, v := range vals {
		if i > 0 && v != vals[i-1] && uint64(i) >= uint64(h+1)*psz && h < parts-1 {
			h++
			out.Starts[h] = uint64(i)
		}
		out.IDs[i] = uint8(h)
		out.Counts[h]++
	}
	for p := h + 1; p < parts; p++ {
		out.Starts[p] = uint64(n)
	}

	opts.Logger.Debug("radix balanced split",
		"rows", n,
		"parts", parts,
		"used", h+1,
		"duration", time.Since(start),
	)
	return out, nil
}
