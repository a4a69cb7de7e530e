package column

import (
	"unsafe"

	"github.com/hupe1980/colcluster/internal/hash"
)

// HashValue returns the bucket hash of a fixed-width value.
//
// One and two byte values hash to themselves. Wider values are mixed with
// hash.Mix32 / hash.Mix64. Floats hash their bit pattern with negative zero
// folded onto positive zero, so values that compare equal hash equal.
func HashValue[T Elem](v T) uint64 {
	if v == 0 {
		v = 0
	}
	switch unsafe.Sizeof(v) {
	case 1:
		return uint64(*(*uint8)(unsafe.Pointer(&v)))
	case 2:
		return uint64(*(*uint16)(unsafe.Pointer(&v)))
	case 4:
		return uint64(hash.Mix32(*(*uint32)(unsafe.Pointer(&v))))
	default:
		return uint64(hash.Mix64(*(*uint64)(unsafe.Pointer(&v))))
	}
}

// HashBytes returns the bucket hash of a variable-width value.
func HashBytes(b []byte) uint64 {
	return hash.Bytes(b)
}
