package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Int32s returns n values in [0, limit).
func (r *RNG) Int32s(n int, limit int32) []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int32, n)
	for i := range out {
		out[i] = r.rand.Int31n(limit)
	}
	return out
}

// Int64s returns n values in [0, limit).
func (r *RNG) Int64s(n int, limit int64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, n)
	for i := range out {
		out[i] = r.rand.Int63n(limit)
	}
	return out
}

// Uint64s returns n values drawn from the full uint64 range.
func (r *RNG) Uint64s(n int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, n)
	for i := range out {
		out[i] = r.rand.Uint64()
	}
	return out
}

// Float64s returns n values in [-limit, limit).
func (r *RNG) Float64s(n int, limit float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, n)
	for i := range out {
		out[i] = (r.rand.Float64()*2 - 1) * limit
	}
	return out
}

const letters = "abcdefghijklmnopqrstuvwxyz"

// Strings returns n strings picked from a vocabulary of distinct random
// words of 1 to maxLen letters.
func (r *RNG) Strings(n, distinct, maxLen int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, distinct)
	vocab := make([]string, 0, distinct)
	for len(vocab) < distinct {
		b := make([]byte, 1+r.rand.Intn(maxLen))
		for i := range b {
			b[i] = letters[r.rand.Intn(len(letters))]
		}
		if _, ok := seen[string(b)]; ok {
			continue
		}
		seen[string(b)] = struct{}{}
		vocab = append(vocab, string(b))
	}

	out := make([]string, n)
	for i := range out {
		out[i] = vocab[r.rand.Intn(distinct)]
	}
	return out
}

// Perm returns a random permutation of [0,n) as uint64 row ids.
func (r *RNG) Perm(n int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, n)
	for i, p := range r.rand.Perm(n) {
		out[i] = uint64(p)
	}
	return out
}

// SortedRuns returns n non-decreasing values built from runs of equal
// values, each run 1 to maxRun long.
func (r *RNG) SortedRuns(n, maxRun int) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, 0, n)
	var v int64
	for len(out) < n {
		run := min(1+r.rand.Intn(maxRun), n-len(out))
		for range run {
			out = append(out, v)
		}
		v += 1 + int64(r.rand.Intn(3))
	}
	return out
}

// Zipf returns a Zipfian-distributed value in [0, n).
// s=1.0 gives standard Zipf, s=1.5 gives a heavy tail.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// ZipfInts returns n Zipfian-distributed keys in [0, buckets).
func (r *RNG) ZipfInts(n, buckets int, s float64) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uint64, n)
	for i := range out {
		out[i] = uint64(r.zipfLocked(buckets, s))
	}
	return out
}

// Positions returns the ascending indexes of vals equal to v.
func Positions[T comparable](vals []T, v T) []uint64 {
	var out []uint64
	for i, x := range vals {
		if x == v {
			out = append(out, uint64(i))
		}
	}
	return out
}

// Reversed returns a reversed copy of ids.
func Reversed(ids []uint64) []uint64 {
	out := slices.Clone(ids)
	slices.Reverse(out)
	return out
}
