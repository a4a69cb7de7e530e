package column

import (
	"fmt"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/colcluster/internal/errs"
)

// Fixed is a column of fixed-width numeric values.
type Fixed[T Elem] struct {
	values []T
	nulls  *roaring.Bitmap
}

// NewFixed returns a column holding values. The slice is adopted, not copied.
func NewFixed[T Elem](values []T) *Fixed[T] {
	return &Fixed[T]{values: values}
}

// NewFixedWithCapacity returns an empty column with room for n rows.
func NewFixedWithCapacity[T Elem](n int) *Fixed[T] {
	return &Fixed[T]{values: make([]T, 0, n)}
}

func (c *Fixed[T]) Len() int { return len(c.values) }

func (c *Fixed[T]) Kind() Kind { return kindOf[T]() }

func (c *Fixed[T]) Width() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// At returns the value of row i.
func (c *Fixed[T]) At(i int) T { return c.values[i] }

// Set overwrites the value of row i. It does not touch the null marker.
func (c *Fixed[T]) Set(i int, v T) { c.values[i] = v }

// Values returns the backing slice. It aliases the column.
func (c *Fixed[T]) Values() []T { return c.values }

// Append adds a non-null row.
func (c *Fixed[T]) Append(v T) {
	c.values = append(c.values, v)
}

// AppendNull adds a null row holding the zero value.
func (c *Fixed[T]) AppendNull() {
	var zero T
	c.values = append(c.values, zero)
	c.SetNull(len(c.values) - 1)
}

// SetNull marks row i as null.
func (c *Fixed[T]) SetNull(i int) {
	if c.nulls == nil {
		c.nulls = roaring.New()
	}
	c.nulls.Add(uint32(i))
}

func (c *Fixed[T]) IsNull(i int) bool {
	return c.nulls != nil && c.nulls.Contains(uint32(i))
}

func (c *Fixed[T]) Nulls() *roaring.Bitmap { return c.nulls }

func (c *Fixed[T]) SetNulls(bm *roaring.Bitmap) {
	if bm != nil && bm.IsEmpty() {
		bm = nil
	}
	c.nulls = bm
}

func (c *Fixed[T]) Truncate(n int) {
	if n >= len(c.values) {
		return
	}
	c.values = c.values[:n]
	truncateNulls(c.nulls, n)
}

func (c *Fixed[T]) HashRow(i int) uint64 { return HashValue(c.values[i]) }

func (c *Fixed[T]) AppendAny(v any) error {
	if err := CheckLen(c.Len() + 1); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		c.AppendNull()
	case T:
		c.Append(x)
	default:
		return fmt.Errorf("%w: cannot append %T to %s column", errs.ErrInvalidArgument, v, c.Kind())
	}
	return nil
}

func (c *Fixed[T]) Raw() []byte {
	if len(c.values) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&c.values[0])), len(c.values)*c.Width())
}

func (c *Fixed[T]) Alloc(n int) FixedWidth {
	return &Fixed[T]{values: make([]T, n)}
}

// Clone returns a deep copy.
func (c *Fixed[T]) Clone() *Fixed[T] {
	out := &Fixed[T]{values: append([]T(nil), c.values...)}
	if c.nulls != nil {
		out.nulls = c.nulls.Clone()
	}
	return out
}

// Slice returns a view of rows [lo,hi). Values are shared with c; appending
// to the view reallocates instead of overwriting c.
func (c *Fixed[T]) Slice(lo, hi int) *Fixed[T] {
	return &Fixed[T]{
		values: c.values[lo:hi:hi],
		nulls:  sliceNulls(c.nulls, lo, hi),
	}
}

// IsSorted reports whether the values are in non-decreasing order.
func (c *Fixed[T]) IsSorted() bool {
	for i := 1; i < len(c.values); i++ {
		if c.values[i] < c.values[i-1] {
			return false
		}
	}
	return true
}
