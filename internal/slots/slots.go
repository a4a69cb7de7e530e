// Package slots provides row-id arrays stored at the narrowest element width
// (2, 4 or 8 bytes) that can address a given number of rows.
//
// The all-ones value of each width is reserved as the "none" marker that
// terminates hash chains, so a width of w bytes addresses at most 2^(8w)-1
// rows.
package slots

import (
	"fmt"
	"math"
)

// Width is the element width of an Array in bytes.
type Width uint8

const (
	Width2 Width = 2
	Width4 Width = 4
	Width8 Width = 8
)

// None marks an empty bucket or the end of a chain.
const None = math.MaxUint64

// WidthFor returns the smallest width able to address n rows.
func WidthFor(n uint64) Width {
	switch {
	case n < math.MaxUint16:
		return Width2
	case n < math.MaxUint32:
		return Width4
	default:
		return Width8
	}
}

// Max returns the largest row id w can hold.
func (w Width) Max() uint64 {
	switch w {
	case Width2:
		return math.MaxUint16 - 1
	case Width4:
		return math.MaxUint32 - 1
	default:
		return math.MaxUint64 - 1
	}
}

// Next returns the next larger width, or w if it is already the widest.
func (w Width) Next() Width {
	switch w {
	case Width2:
		return Width4
	default:
		return Width8
	}
}

func (w Width) String() string { return fmt.Sprintf("%d-byte", uint8(w)) }

type elem interface {
	~uint16 | ~uint32 | ~uint64
}

type store interface {
	get(i uint64) uint64
	put(i, v uint64)
	grow(n uint64)
	size() uint64
}

type typed[E elem] struct {
	data []E
	none E
}

func newTyped[E elem](n uint64) *typed[E] {
	t := &typed[E]{data: make([]E, n)}
	t.none = ^E(0)
	for i := range t.data {
		t.data[i] = t.none
	}
	return t
}

func (t *typed[E]) get(i uint64) uint64 {
	v := t.data[i]
	if v == t.none {
		return None
	}
	return uint64(v)
}

func (t *typed[E]) put(i, v uint64) {
	if v == None {
		t.data[i] = t.none
		return
	}
	t.data[i] = E(v)
}

func (t *typed[E]) grow(n uint64) {
	old := uint64(len(t.data))
	if n <= old {
		return
	}
	if n <= uint64(cap(t.data)) {
		t.data = t.data[:n]
	} else {
		d := make([]E, n, n+n/4)
		copy(d, t.data)
		t.data = d
	}
	for i := old; i < n; i++ {
		t.data[i] = t.none
	}
}

func (t *typed[E]) size() uint64 { return uint64(len(t.data)) }

// Array is a fixed-length array of row ids initialized to None.
type Array struct {
	width Width
	s     store
}

// New returns an Array of n elements at width w, all set to None.
func New(w Width, n uint64) *Array {
	a := &Array{width: w}
	switch w {
	case Width2:
		a.s = newTyped[uint16](n)
	case Width4:
		a.s = newTyped[uint32](n)
	default:
		a.width = Width8
		a.s = newTyped[uint64](n)
	}
	return a
}

// Width returns the element width.
func (a *Array) Width() Width { return a.width }

// Len returns the number of elements.
func (a *Array) Len() uint64 { return a.s.size() }

// Get returns element i, or None.
func (a *Array) Get(i uint64) uint64 { return a.s.get(i) }

// Put stores v (a row id no larger than Width().Max(), or None) at i.
func (a *Array) Put(i, v uint64) { a.s.put(i, v) }

// Grow extends the array to n elements, filling new slots with None.
func (a *Array) Grow(n uint64) { a.s.grow(n) }

// Widen returns a copy of a at width w. It returns a unchanged when w is not
// wider than the current width.
func (a *Array) Widen(w Width) *Array {
	if w <= a.width {
		return a
	}
	out := New(w, a.Len())
	for i := uint64(0); i < a.Len(); i++ {
		out.Put(i, a.Get(i))
	}
	return out
}

// Bytes returns the memory footprint of n elements at width w.
func Bytes(w Width, n uint64) int64 {
	return int64(w) * int64(n)
}
