// Package hash provides the hash functions behind bucket selection and the
// checksum used by checkpoint segments.
//
// # Bucket hashing
//
// Fixed-width integer keys go through a cheap bit mixer before the bucket
// mask is applied:
//
//	Mix32(x) = x>>7 ^ x>>13 ^ x>>21 ^ x
//	Mix64(x) = Mix32(uint32(x ^ x>>32))
//
// One and two byte keys are not mixed at all; the index makes its mask
// cover their whole domain instead, so the key is its own bucket.
//
// Variable-length keys use xxhash64. Columns that precompute a per-row hash
// store exactly this value.
//
// # Checksums
//
// CRC32-Castagnoli (hardware accelerated by hash/crc32 where available)
// guards checkpoint payloads:
//
//	checksum := hash.CRC32C(payload)
package hash
