package hash

import "github.com/cespare/xxhash/v2"

// Mix32 spreads the high bits of a 4-byte key into the low bits that the
// bucket mask keeps.
func Mix32(x uint32) uint32 {
	return (x >> 7) ^ (x >> 13) ^ (x >> 21) ^ x
}

// Mix64 folds an 8-byte key to 32 bits and mixes it like Mix32.
func Mix64(x uint64) uint32 {
	return Mix32(uint32(x ^ (x >> 32)))
}

// Bytes hashes a variable-length key.
func Bytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// String hashes a variable-length key given as a string.
func String(s string) uint64 {
	return xxhash.Sum64String(s)
}
