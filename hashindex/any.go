package hashindex

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/internal/errs"
)

// Dynamic is a lazily built index whose key type is only known at run time.
// Values are passed as the column's element type; variable-width columns
// accept string or []byte. A nil value stands for a null row.
type Dynamic interface {
	Probe(v any) (iter.Seq[uint64], error)
	Select(v any, lo, hi uint64, cands *roaring.Bitmap) ([]uint64, error)
	Insert(rowID uint64, v any) error
	// Mask builds the index if needed and returns its bucket mask.
	Mask() (uint64, error)
	Stats() (Stats, bool)
	Built() bool
	// Builds counts the builds and rebuilds so far.
	Builds() int
	Invalidate()
	Destroy()
}

// ForColumn returns a Dynamic index over col.
func ForColumn(col column.Column, optFns ...func(o *Options)) (Dynamic, error) {
	switch c := col.(type) {
	case *column.Fixed[int8]:
		return newFixedDynamic(c, optFns), nil
	case *column.Fixed[int16]:
		return newFixedDynamic(c, optFns), nil
	case *column.Fixed[int32]:
		return newFixedDynamic(c, optFns), nil
	case *column.Fixed[int64]:
		return newFixedDynamic(c, optFns), nil
	case *column.Fixed[uint8]:
		return newFixedDynamic(c, optFns), nil
	case *column.Fixed[uint16]:
		return newFixedDynamic(c, optFns), nil
	case *column.Fixed[uint32]:
		return newFixedDynamic(c, optFns), nil
	case *column.Fixed[uint64]:
		return newFixedDynamic(c, optFns), nil
	case *column.Fixed[float32]:
		return newFixedDynamic(c, optFns), nil
	case *column.Fixed[float64]:
		return newFixedDynamic(c, optFns), nil
	case *column.Varlen:
		return &dynamic[[]byte]{
			lazy: NewLazy[[]byte](c, BytesKeyer(), optFns...),
			conv: bytesArg,
		}, nil
	default:
		return nil, errs.Invalid("cannot index column of type %T", col)
	}
}

func newFixedDynamic[T column.Elem](c *column.Fixed[T], optFns []func(o *Options)) *dynamic[T] {
	return &dynamic[T]{
		lazy: NewLazy[T](c, FixedKeyer[T](), optFns...),
		conv: fixedArg[T],
	}
}

func fixedArg[T column.Elem](v any) (T, error) {
	switch x := v.(type) {
	case nil:
		var zero T
		return zero, nil
	case T:
		return x, nil
	default:
		var zero T
		return zero, errs.Invalid("key of type %T for %T column", v, zero)
	}
}

func bytesArg(v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	default:
		return nil, errs.Invalid("key of type %T for varlen column", v)
	}
}

type dynamic[T any] struct {
	lazy *Lazy[T]
	conv func(any) (T, error)
}

func (d *dynamic[T]) Probe(v any) (iter.Seq[uint64], error) {
	k, err := d.conv(v)
	if err != nil {
		return nil, err
	}
	return d.lazy.Probe(k)
}

func (d *dynamic[T]) Select(v any, lo, hi uint64, cands *roaring.Bitmap) ([]uint64, error) {
	k, err := d.conv(v)
	if err != nil {
		return nil, err
	}
	return d.lazy.Select(k, lo, hi, cands)
}

func (d *dynamic[T]) Insert(rowID uint64, v any) error {
	k, err := d.conv(v)
	if err != nil {
		return err
	}
	return d.lazy.Insert(rowID, k)
}

func (d *dynamic[T]) Mask() (uint64, error) {
	idx, err := d.lazy.Get()
	if err != nil {
		return 0, err
	}
	return idx.Mask(), nil
}

func (d *dynamic[T]) Stats() (Stats, bool) { return d.lazy.Stats() }
func (d *dynamic[T]) Built() bool          { return d.lazy.Built() }
func (d *dynamic[T]) Builds() int          { return d.lazy.Builds() }
func (d *dynamic[T]) Invalidate()          { d.lazy.Invalidate() }
func (d *dynamic[T]) Destroy()             { d.lazy.Destroy() }
