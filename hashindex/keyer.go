package hashindex

import (
	"bytes"
	"unsafe"

	"github.com/hupe1980/colcluster/column"
)

// Keyer describes how keys of type T are hashed and compared.
type Keyer[T any] struct {
	// Width is the key width in bytes, or 0 for variable-width keys.
	// Keys of width 1 and 2 hash to themselves and get one bucket per
	// possible value, so probes skip the comparison.
	Width int
	Hash  func(T) uint64
	Equal func(a, b T) bool
}

func (k Keyer[T]) narrow() bool { return k.Width == 1 || k.Width == 2 }

// FixedKeyer returns the keyer for a fixed-width element type.
func FixedKeyer[T column.Elem]() Keyer[T] {
	var zero T
	return Keyer[T]{
		Width: int(unsafe.Sizeof(zero)),
		Hash:  column.HashValue[T],
		Equal: func(a, b T) bool { return a == b },
	}
}

// BytesKeyer returns the keyer for variable-width keys.
func BytesKeyer() Keyer[[]byte] {
	return Keyer[[]byte]{
		Hash:  column.HashBytes,
		Equal: bytes.Equal,
	}
}

// Source is the column an index is built over.
type Source[T any] interface {
	Len() int
	At(i int) T
	IsNull(i int) bool
}

// PrehashedSource is implemented by sources that store a hash per row.
type PrehashedSource interface {
	RowHash(i int) (uint64, bool)
}
