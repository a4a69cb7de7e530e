package permute

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/internal/errs"
)

// Direction selects how a map is read.
type Direction uint8

const (
	// Scatter moves source row i to destination m[i].
	Scatter Direction = iota
	// Gather fills destination row i from source m[i].
	Gather
)

func (d Direction) String() string {
	switch d {
	case Scatter:
		return "scatter"
	case Gather:
		return "gather"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Validate reports whether m is a bijection on [0, len(m)).
func Validate(m []uint64) error {
	n := uint64(len(m))
	seen := bitset.New(uint(n))
	for i, d := range m {
		if d >= n {
			return errs.Invalid("map[%d] = %d outside [0, %d)", i, d, n)
		}
		if seen.Test(uint(d)) {
			return errs.Invalid("map[%d] = %d is a duplicate target", i, d)
		}
		seen.Set(uint(d))
	}
	return nil
}

// Invert returns the inverse permutation of m. Scatter with m equals Gather
// with Invert(m).
func Invert(m []uint64) ([]uint64, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	return invert(m), nil
}

func invert(m []uint64) []uint64 {
	inv := make([]uint64, len(m))
	for i, d := range m {
		inv[d] = uint64(i)
	}
	return inv
}

// Apply returns col reordered by m. The source column is left untouched.
func Apply(col column.Column, m []uint64, dir Direction, optFns ...func(o *Options)) (column.Column, error) {
	return ApplyContext(context.Background(), col, m, dir, optFns...)
}

// ApplyContext is Apply with a context for checkpoint IO.
func ApplyContext(ctx context.Context, col column.Column, m []uint64, dir Direction, optFns ...func(o *Options)) (column.Column, error) {
	opts := applyOptions(optFns)

	if err := check(col, m, dir); err != nil {
		return nil, err
	}
	return apply(ctx, "", col, m, dir, opts)
}

func check(col column.Column, m []uint64, dir Direction) error {
	if dir != Scatter && dir != Gather {
		return errs.Invalid("unknown direction %d", dir)
	}
	if len(m) != col.Len() {
		return &errs.CardinalityMismatchError{Name: "map", Expected: col.Len(), Actual: len(m)}
	}
	return Validate(m)
}

func apply(ctx context.Context, name string, col column.Column, m []uint64, dir Direction, opts Options) (column.Column, error) {
	res := opts.Controller.Reserve()
	defer res.Release()

	bytes := outputBytes(col, dir)
	if err := res.Grow(bytes); err != nil {
		return nil, errs.NewBudgetError("permute output", bytes, err)
	}

	cp := newCheckpointer(ctx, opts.Checkpoint, opts.Controller, name)

	var (
		out column.Column
		err error
	)
	switch c := col.(type) {
	case *column.Varlen:
		out, err = applyVarlen(c, m, dir, cp)
	case column.FixedWidth:
		out, err = applyFixed(c, m, dir, cp)
	default:
		return nil, errs.Invalid("unsupported column type %T", col)
	}
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("permutation applied",
		"column", name,
		"direction", dir.String(),
		"rows", col.Len(),
		"segments", cp.segments(),
	)
	return out, nil
}

// outputBytes estimates the memory of the reordered column plus an inverse
// map when variable-width rows are scattered.
func outputBytes(col column.Column, dir Direction) int64 {
	n := int64(col.Len())
	if v, ok := col.(*column.Varlen); ok {
		b := int64(v.HeapSize()) + 8*(n+1)
		if v.HasHashes() {
			b += 8 * n
		}
		if dir == Scatter {
			b += 8 * n
		}
		return b
	}
	return n * int64(col.Width())
}

func applyFixed(src column.FixedWidth, m []uint64, dir Direction, cp *checkpointer) (column.FixedWidth, error) {
	n := src.Len()
	dst := src.Alloc(n)
	w := src.Width()
	s, d := src.Raw(), dst.Raw()

	if dir == Scatter {
		copyRows(d, s, w, m, Scatter, 0, n)
		dst.SetNulls(scatterNulls(src.Nulls(), m))
		if err := cp.flushAll(dst); err != nil {
			return nil, err
		}
		return dst, nil
	}

	dst.SetNulls(gatherNulls(src.Nulls(), m))
	for lo := 0; lo < n; lo += cp.every(n) {
		hi := min(lo+cp.every(n), n)
		copyRows(d, s, w, m, Gather, lo, hi)
		if err := cp.flush(dst, lo, hi); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// copyRows moves rows [lo,hi) of the map between the raw element buffers.
func copyRows(dst, src []byte, w int, m []uint64, dir Direction, lo, hi int) {
	switch w {
	case 1:
		move(dst, src, m, dir, lo, hi)
	case 2:
		move(view[uint16](dst), view[uint16](src), m, dir, lo, hi)
	case 4:
		move(view[uint32](dst), view[uint32](src), m, dir, lo, hi)
	case 8:
		move(view[uint64](dst), view[uint64](src), m, dir, lo, hi)
	default:
		for i := lo; i < hi; i++ {
			di, si := uint64(i), m[i]
			if dir == Scatter {
				di, si = m[i], uint64(i)
			}
			copy(dst[di*uint64(w):(di+1)*uint64(w)], src[si*uint64(w):(si+1)*uint64(w)])
		}
	}
}

func move[E any](dst, src []E, m []uint64, dir Direction, lo, hi int) {
	if dir == Scatter {
		for i := lo; i < hi; i++ {
			dst[m[i]] = src[i]
		}
		return
	}
	for i := lo; i < hi; i++ {
		dst[i] = src[m[i]]
	}
}

func view[E uint16 | uint32 | uint64](b []byte) []E {
	if len(b) == 0 {
		return nil
	}
	var zero E
	return unsafe.Slice((*E)(unsafe.Pointer(&b[0])), len(b)/int(unsafe.Sizeof(zero)))
}

func applyVarlen(src *column.Varlen, m []uint64, dir Direction, cp *checkpointer) (*column.Varlen, error) {
	// Varlen rows can only be appended in destination order.
	gather := m
	if dir == Scatter {
		gather = invert(m)
	}

	n := src.Len()
	dst := column.NewVarlen(src.HasHashes())
	dst.Grow(n, src.HeapSize())

	for lo := 0; lo < n; lo += cp.every(n) {
		hi := min(lo+cp.every(n), n)
		for i := lo; i < hi; i++ {
			s := int(gather[i])
			h, _ := src.RowHash(s)
			dst.AppendHashed(src.At(s), h)
			if src.IsNull(s) {
				dst.SetNull(i)
			}
		}
		if dir == Gather {
			if err := cp.flush(dst, lo, hi); err != nil {
				return nil, err
			}
		}
	}
	if dir == Scatter {
		if err := cp.flushAll(dst); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func scatterNulls(bm *roaring.Bitmap, m []uint64) *roaring.Bitmap {
	if bm == nil || bm.IsEmpty() {
		return nil
	}
	out := roaring.New()
	it := bm.Iterator()
	for it.HasNext() {
		out.Add(uint32(m[it.Next()]))
	}
	return out
}

func gatherNulls(bm *roaring.Bitmap, m []uint64) *roaring.Bitmap {
	if bm == nil || bm.IsEmpty() {
		return nil
	}
	out := roaring.New()
	for i, s := range m {
		if bm.Contains(uint32(s)) {
			out.Add(uint32(i))
		}
	}
	return out
}
