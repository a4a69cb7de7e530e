package column

import (
	"fmt"
	"reflect"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/colcluster/internal/errs"
)

// MaxRows is the largest supported column length. Null masks and candidate
// lists are roaring bitmaps, which address rows with 32-bit ids.
const MaxRows = 1 << 32

// CheckLen reports an error wrapping errs.ErrInvalidArgument when n rows
// exceed MaxRows.
func CheckLen(n int) error {
	if uint64(n) > MaxRows {
		return errs.Invalid("%d rows exceed the limit of %d", n, uint64(MaxRows))
	}
	return nil
}

// Kind identifies the element type of a column.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindVarlen
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindVarlen:  "varlen",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Integer is the set of fixed-width integer element types.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Float is the set of floating point element types.
type Float interface {
	~float32 | ~float64
}

// Elem is the set of element types a Fixed column can hold.
type Elem interface {
	Integer | Float
}

// Column is the behavior shared by every column layout.
type Column interface {
	// Len returns the number of rows.
	Len() int
	// Kind returns the element type.
	Kind() Kind
	// Width returns the element width in bytes, or 0 for variable-width columns.
	Width() int
	// IsNull reports whether row i carries the null marker.
	IsNull(i int) bool
	// Nulls returns the null marker bitmap. It may be nil when no row is null.
	Nulls() *roaring.Bitmap
	// HashRow returns the bucket hash of row i, before masking.
	HashRow(i int) uint64
	// AppendAny appends a value of the column's element type, or a null for nil.
	AppendAny(v any) error
	// Truncate drops every row at or after n.
	Truncate(n int)
}

// FixedWidth is a Column whose rows can be copied as raw bytes.
type FixedWidth interface {
	Column
	// Raw returns the element bytes of all rows, Len()*Width() long.
	// The slice aliases the column.
	Raw() []byte
	// Alloc returns a new zeroed column of the same element type with n rows.
	Alloc(n int) FixedWidth
	// SetNulls replaces the null marker bitmap.
	SetNulls(bm *roaring.Bitmap)
}

func kindOf[T Elem]() Kind {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int8:
		return KindInt8
	case reflect.Int16:
		return KindInt16
	case reflect.Int32:
		return KindInt32
	case reflect.Int64:
		return KindInt64
	case reflect.Uint8:
		return KindUint8
	case reflect.Uint16:
		return KindUint16
	case reflect.Uint32:
		return KindUint32
	case reflect.Uint64:
		return KindUint64
	case reflect.Float32:
		return KindFloat32
	case reflect.Float64:
		return KindFloat64
	default:
		return KindInvalid
	}
}

func truncateNulls(bm *roaring.Bitmap, n int) {
	if bm != nil {
		bm.RemoveRange(uint64(n), uint64(1)<<32)
	}
}

// sliceNulls returns the null markers of rows [lo,hi), renumbered from 0.
func sliceNulls(bm *roaring.Bitmap, lo, hi int) *roaring.Bitmap {
	if bm == nil || bm.IsEmpty() {
		return nil
	}
	out := roaring.New()
	it := bm.Iterator()
	it.AdvanceIfNeeded(uint32(lo))
	for it.HasNext() {
		v := it.Next()
		if int(v) >= hi {
			break
		}
		out.Add(v - uint32(lo))
	}
	if out.IsEmpty() {
		return nil
	}
	return out
}
