// Package permute materializes reordered columns from a permutation map.
//
// A map m of length n is a bijection on [0, n). In Scatter direction source
// row i moves to m[i]; in Gather direction destination row i is taken from
// m[i]. Fixed-width rows are copied element by element, variable-width rows
// are deep-copied into a fresh heap. Null markers and precomputed hashes
// travel with their rows.
//
// Optionally the finished output is written as checkpoint segments to a
// blobstore.BlobStore while the copy progresses (see Checkpoint).
package permute
