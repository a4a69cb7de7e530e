package radix

import (
	"math"
	"time"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/internal/errs"
)

// Result is the outcome of Run.
type Result struct {
	Bits   int
	Offset int
	// Histogram holds the exclusive prefix sums: Histogram[d] is the first
	// destination row of digit d.
	Histogram []uint64
	// Counts holds the number of rows per digit.
	Counts []uint64
	// Map[i] is the destination row of source row i.
	Map []uint64
}

// Partitions returns the number of digits.
func (r *Result) Partitions() int { return len(r.Counts) }

type digitFn[T column.Integer] func(T) uint64

func newDigit[T column.Integer](bits, offset int) digitFn[T] {
	var zero T
	width := uint64(math.MaxUint64)
	if s := unsafe.Sizeof(zero); s < 8 {
		width = 1<<(8*s) - 1
	}
	mask := uint64(1)<<uint(bits) - 1
	shift := uint(offset)
	return func(v T) uint64 {
		return ((uint64(v) & width) >> shift) & mask
	}
}

// Digit returns the digit of v. A negative offset counts as 0.
func Digit[T column.Integer](v T, bits, offset int) uint64 {
	return newDigit[T](bits, max(offset, 0))(v)
}

func checkBits(bits, limit int) error {
	if bits < 0 || bits >= limit {
		return &errs.BitWidthError{Bits: bits, Max: limit}
	}
	return nil
}

// Histogram counts the rows of vals per digit.
func Histogram[T column.Integer](vals []T, bits, offset int) ([]uint64, error) {
	if err := checkBits(bits, MaxBits); err != nil {
		return nil, err
	}
	hist := make([]uint64, 1<<bits)
	count(vals, newDigit[T](bits, max(offset, 0)), hist)
	return hist, nil
}

func count[T column.Integer](vals []T, digit digitFn[T], hist []uint64) {
	for _, v := range vals {
		hist[digit(v)]++
	}
}

// PrefixSum turns counts into exclusive prefix sums in place and returns the
// total. Afterwards hist[d] is the number of rows with a digit below d.
func PrefixSum(hist []uint64) uint64 {
	var sum uint64
	for d, c := range hist {
		hist[d] = sum
		sum += c
	}
	return sum
}

// Scatter returns the partition map of vals given the exclusive prefix sums
// of its histogram. Rows of equal digit keep their relative order. prefix is
// not modified.
func Scatter[T column.Integer](vals []T, bits, offset int, prefix []uint64) ([]uint64, error) {
	if err := checkBits(bits, MaxBits); err != nil {
		return nil, err
	}
	if len(prefix) != 1<<bits {
		return nil, errs.Invalid("prefix has %d entries, want %d", len(prefix), 1<<bits)
	}
	m := make([]uint64, len(vals))
	cursor := append([]uint64(nil), prefix...)
	scatter(vals, newDigit[T](bits, max(offset, 0)), cursor, m, 0)
	return m, nil
}

func scatter[T column.Integer](vals []T, digit digitFn[T], cursor, m []uint64, base int) {
	for i, v := range vals {
		d := digit(v)
		m[base+i] = cursor[d]
		cursor[d]++
	}
}

// Run partitions col on bits bits starting at offset. A negative offset is
// treated as 0.
//
// It returns an error wrapping errs.ErrInvalidArgument for a digit width
// outside [0, MaxBits) and errs.ErrAllocationFailure when the histogram or
// map cannot be reserved.
func Run[T column.Integer](col *column.Fixed[T], bits, offset int, optFns ...func(o *Options)) (*Result, error) {
	if err := checkBits(bits, MaxBits); err != nil {
		return nil, err
	}
	opts := applyOptions(optFns)
	offset = max(offset, 0)
	start := time.Now()

	vals := col.Values()
	n := len(vals)
	parts := 1 << bits

	pool := acquireWorkers(opts, n)
	defer pool.release()
	workers := pool.n

	res := opts.Controller.Reserve()
	defer res.Release()

	histBytes := int64(parts) * 8 * int64(workers+1)
	if err := res.Grow(histBytes); err != nil {
		return nil, errs.NewBudgetError("radix histogram", histBytes, err)
	}
	mapBytes := int64(n) * 8
	if err := res.Grow(mapBytes); err != nil {
		return nil, errs.NewBudgetError("radix map", mapBytes, err)
	}

	digit := newDigit[T](bits, offset)
	chunks := split(n, workers)

	local := make([][]uint64, workers)
	var g errgroup.Group
	for w := range workers {
		local[w] = make([]uint64, parts)
		lo, hi := chunks[w], chunks[w+1]
		g.Go(func() error {
			count(vals[lo:hi], digit, local[w])
			return nil
		})
	}
	_ = g.Wait()

	counts := make([]uint64, parts)
	prefix := make([]uint64, parts)
	var sum uint64
	for d := range parts {
		prefix[d] = sum
		for w := range workers {
			c := local[w][d]
			// local[w] becomes the write cursor of worker w
			local[w][d] = sum
			sum += c
			counts[d] += c
		}
	}
	if sum != uint64(n) {
		return nil, errs.Invariant("histogram covers %d rows, column has %d", sum, n)
	}

	m := make([]uint64, n)
	for w := range workers {
		lo, hi := chunks[w], chunks[w+1]
		g.Go(func() error {
			scatter(vals[lo:hi], digit, local[w], m, lo)
			return nil
		})
	}
	_ = g.Wait()

	opts.Logger.Debug("radix partition",
		"rows", n,
		"bits", bits,
		"offset", offset,
		"workers", workers,
		"duration", time.Since(start),
	)

	return &Result{
		Bits:      bits,
		Offset:    offset,
		Histogram: prefix,
		Counts:    counts,
		Map:       m,
	}, nil
}

// split returns workers+1 boundaries of contiguous row ranges.
func split(n, workers int) []int {
	b := make([]int, workers+1)
	for w := range workers {
		b[w+1] = n * (w + 1) / workers
	}
	return b
}

type workerPool struct {
	n        int
	acquired int
	release  func()
}

// acquireWorkers grants the calling goroutine plus as many extra workers as
// the controller has free background slots.
func acquireWorkers(opts Options, n int) workerPool {
	want := min(opts.Workers, max(1, n/minRowsPerWorker))
	p := workerPool{n: 1}
	for p.n < want && opts.Controller.TryAcquireBackground() {
		p.n++
		p.acquired++
	}
	acquired := p.acquired
	p.release = func() {
		for range acquired {
			opts.Controller.ReleaseBackground()
		}
	}
	return p
}
