package column

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/colcluster/internal/errs"
)

// Varlen is a column of variable-width byte strings kept in a single heap.
//
// Row i occupies heap[offsets[i]:offsets[i+1]]. When the column is created
// with hashes, the xxhash64 of every row is stored next to its offset.
type Varlen struct {
	heap    []byte
	offsets []uint64
	hashes  []uint64
	nulls   *roaring.Bitmap
}

// NewVarlen returns an empty variable-width column. withHashes enables the
// precomputed per-row hash.
func NewVarlen(withHashes bool) *Varlen {
	c := &Varlen{offsets: []uint64{0}}
	if withHashes {
		c.hashes = []uint64{}
	}
	return c
}

// VarlenFromStrings builds a column from ss.
func VarlenFromStrings(ss []string, withHashes bool) *Varlen {
	c := NewVarlen(withHashes)
	size := 0
	for _, s := range ss {
		size += len(s)
	}
	c.Grow(len(ss), size)
	for _, s := range ss {
		c.AppendString(s)
	}
	return c
}

// Grow reserves room for rows more rows holding bytes more heap bytes.
func (c *Varlen) Grow(rows, bytes int) {
	if free := cap(c.heap) - len(c.heap); free < bytes {
		h := make([]byte, len(c.heap), len(c.heap)+bytes)
		copy(h, c.heap)
		c.heap = h
	}
	if free := cap(c.offsets) - len(c.offsets); free < rows {
		o := make([]uint64, len(c.offsets), len(c.offsets)+rows)
		copy(o, c.offsets)
		c.offsets = o
	}
	if c.hashes != nil {
		if free := cap(c.hashes) - len(c.hashes); free < rows {
			h := make([]uint64, len(c.hashes), len(c.hashes)+rows)
			copy(h, c.hashes)
			c.hashes = h
		}
	}
}

func (c *Varlen) Len() int { return len(c.offsets) - 1 }

func (c *Varlen) Kind() Kind { return KindVarlen }

func (c *Varlen) Width() int { return 0 }

// At returns the bytes of row i. The slice aliases the heap and must not be
// modified.
func (c *Varlen) At(i int) []byte {
	return c.heap[c.offsets[i]:c.offsets[i+1]:c.offsets[i+1]]
}

// String returns row i as a string.
func (c *Varlen) String(i int) string { return string(c.At(i)) }

// Append adds a non-null row. b is copied into the heap.
func (c *Varlen) Append(b []byte) {
	var h uint64
	if c.hashes != nil {
		h = HashBytes(b)
	}
	c.AppendHashed(b, h)
}

// AppendString adds a non-null row.
func (c *Varlen) AppendString(s string) {
	c.Append([]byte(s))
}

// AppendHashed adds a non-null row whose hash is already known. h is
// ignored when the column carries no hashes.
func (c *Varlen) AppendHashed(b []byte, h uint64) {
	c.heap = append(c.heap, b...)
	c.offsets = append(c.offsets, uint64(len(c.heap)))
	if c.hashes != nil {
		c.hashes = append(c.hashes, h)
	}
}

// AppendNull adds a null row holding the empty string.
func (c *Varlen) AppendNull() {
	c.AppendHashed(nil, HashBytes(nil))
	c.SetNull(c.Len() - 1)
}

// SetNull marks row i as null.
func (c *Varlen) SetNull(i int) {
	if c.nulls == nil {
		c.nulls = roaring.New()
	}
	c.nulls.Add(uint32(i))
}

func (c *Varlen) IsNull(i int) bool {
	return c.nulls != nil && c.nulls.Contains(uint32(i))
}

func (c *Varlen) Nulls() *roaring.Bitmap { return c.nulls }

// SetNulls replaces the null marker bitmap.
func (c *Varlen) SetNulls(bm *roaring.Bitmap) {
	if bm != nil && bm.IsEmpty() {
		bm = nil
	}
	c.nulls = bm
}

// Truncate drops rows at or after n. Slices taken earlier must not be used
// once rows are appended again.
func (c *Varlen) Truncate(n int) {
	if n >= c.Len() {
		return
	}
	c.heap = c.heap[:c.offsets[n]]
	c.offsets = c.offsets[:n+1]
	if c.hashes != nil {
		c.hashes = c.hashes[:n]
	}
	truncateNulls(c.nulls, n)
}

// HasHashes reports whether rows carry a precomputed hash.
func (c *Varlen) HasHashes() bool { return c.hashes != nil }

// RowHash returns the precomputed hash of row i, if the column carries one.
func (c *Varlen) RowHash(i int) (uint64, bool) {
	if c.hashes == nil {
		return 0, false
	}
	return c.hashes[i], true
}

func (c *Varlen) HashRow(i int) uint64 {
	if h, ok := c.RowHash(i); ok {
		return h
	}
	return HashBytes(c.At(i))
}

// HeapSize returns the number of heap bytes in use.
func (c *Varlen) HeapSize() int { return len(c.heap) }

func (c *Varlen) AppendAny(v any) error {
	if err := CheckLen(c.Len() + 1); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		c.AppendNull()
	case string:
		c.AppendString(x)
	case []byte:
		c.Append(x)
	default:
		return fmt.Errorf("%w: cannot append %T to varlen column", errs.ErrInvalidArgument, v)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Varlen) Clone() *Varlen {
	out := &Varlen{
		heap:    append([]byte(nil), c.heap...),
		offsets: append([]uint64(nil), c.offsets...),
	}
	if c.hashes != nil {
		out.hashes = append([]uint64{}, c.hashes...)
	}
	if c.nulls != nil {
		out.nulls = c.nulls.Clone()
	}
	return out
}

// Slice returns a view of rows [lo,hi) sharing the heap of c.
func (c *Varlen) Slice(lo, hi int) *Varlen {
	out := &Varlen{
		heap:    c.heap[:len(c.heap):len(c.heap)],
		offsets: c.offsets[lo : hi+1 : hi+1],
		nulls:   sliceNulls(c.nulls, lo, hi),
	}
	if c.hashes != nil {
		out.hashes = c.hashes[lo:hi:hi]
	}
	return out
}
