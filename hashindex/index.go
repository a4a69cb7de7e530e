package hashindex

import (
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/internal/errs"
	"github.com/hupe1980/colcluster/internal/slots"
	"github.com/hupe1980/colcluster/resource"
)

// Index is a bucket-chained hash index over a Source.
//
// Probe and Select may run concurrently with each other. Insert, rebuilds
// and Destroy take the write lock.
type Index[T any] struct {
	mu    sync.RWMutex
	src   Source[T]
	pre   PrehashedSource
	keyer Keyer[T]
	opts  Options

	mask     uint64
	hash     *slots.Array
	link     *slots.Array
	rows     uint64
	occupied uint64
	inserted uint64
	pending  int
	rebuilds int
	valid    bool
	res      *resource.Reservation
}

// Build indexes every row of src. Sources longer than column.MaxRows are
// rejected with errs.ErrInvalidArgument.
//
// It returns an error wrapping errs.ErrAllocationFailure when the Hash and
// Link arrays cannot be reserved against Options.Controller.
func Build[T any](src Source[T], keyer Keyer[T], optFns ...func(o *Options)) (*Index[T], error) {
	idx := &Index[T]{
		src:   src,
		keyer: keyer,
		opts:  applyOptions(optFns),
	}
	if p, ok := src.(PrehashedSource); ok {
		idx.pre = p
	}
	if err := idx.build("build"); err != nil {
		return nil, err
	}
	return idx, nil
}

func bucketCount(n uint64, narrowWidth int) uint64 {
	if narrowWidth == 1 || narrowWidth == 2 {
		return 1 << (8 * narrowWidth)
	}
	b := uint64(1)
	for b < n {
		b <<= 1
	}
	return b
}

func (idx *Index[T]) rowHash(i int) uint64 {
	if idx.pre != nil {
		if h, ok := idx.pre.RowHash(i); ok {
			return h
		}
	}
	return idx.keyer.Hash(idx.src.At(i))
}

// build replaces the arrays with a fresh index over all rows of src. On
// error the current state is left as it was.
func (idx *Index[T]) build(op string) error {
	start := time.Now()
	if err := column.CheckLen(idx.src.Len()); err != nil {
		return err
	}
	n := uint64(idx.src.Len())
	buckets := bucketCount(n, idx.keyer.Width)
	w := slots.WidthFor(n)

	size := slots.Bytes(w, buckets) + slots.Bytes(w, n)
	res := idx.opts.Controller.Reserve()
	if err := res.Grow(size); err != nil {
		return errs.NewBudgetError("hashindex "+op, size, err)
	}

	mask := buckets - 1
	hash := slots.New(w, buckets)
	link := slots.New(w, n)
	var occupied uint64
	for i := uint64(0); i < n; i++ {
		b := idx.rowHash(int(i)) & mask
		head := hash.Get(b)
		if head == slots.None {
			occupied++
		}
		link.Put(i, head)
		hash.Put(b, i)
	}

	if idx.res != nil {
		idx.res.Release()
		idx.rebuilds++
	}
	idx.mask = mask
	idx.hash = hash
	idx.link = link
	idx.rows = n
	idx.occupied = occupied
	idx.inserted = 0
	idx.pending = 0
	idx.valid = true
	idx.res = res

	idx.opts.Logger.Debug("hash index "+op,
		"rows", n,
		"buckets", buckets,
		"width", int(w),
		"occupied", occupied,
		"bytes", size,
		"duration", time.Since(start),
	)
	return nil
}

func (idx *Index[T]) drop() {
	idx.valid = false
	idx.hash = nil
	idx.link = nil
	if idx.res != nil {
		idx.res.Release()
	}
}

// Probe returns the ids of every non-null row whose value equals v, from the
// most recently indexed row to the oldest.
//
// The read lock is held while the sequence is being iterated, so the
// consumer must not mutate the index from inside the loop. A dropped or
// destroyed index yields nothing.
func (idx *Index[T]) Probe(v T) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		idx.mu.RLock()
		defer idx.mu.RUnlock()

		if !idx.valid {
			return
		}
		narrow := idx.keyer.narrow()
		b := idx.keyer.Hash(v) & idx.mask
		for r := idx.hash.Get(b); r != slots.None; r = idx.link.Get(r) {
			if idx.src.IsNull(int(r)) {
				continue
			}
			if !narrow && !idx.keyer.Equal(idx.src.At(int(r)), v) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Select returns the ids of the rows equal to v that lie in [lo,hi) and, if
// cands is non-nil, are contained in cands. The ids are ascending.
func (idx *Index[T]) Select(v T, lo, hi uint64, cands *roaring.Bitmap) []uint64 {
	var out []uint64
	for r := range idx.Probe(v) {
		if r < lo {
			// chains run from high ids to low ids
			break
		}
		if r >= hi {
			continue
		}
		if cands != nil && !cands.Contains(uint32(r)) {
			continue
		}
		out = append(out, r)
	}
	slices.Reverse(out)
	return out
}

// Insert adds row rowID holding v to the index. The row must already be
// stored in the source, and rowID must be the next row id the index has not
// seen. Inserting into a dropped index is a no-op.
//
// When the row id no longer fits the slot width the index is rebuilt at the
// next width. A failed reservation drops the index and returns an error
// wrapping errs.ErrAllocationFailure.
func (idx *Index[T]) Insert(rowID uint64, v T) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.valid {
		return nil
	}
	if rowID != idx.rows {
		return errs.Invalid("insert of row %d into index holding %d rows", rowID, idx.rows)
	}
	if rowID >= column.MaxRows {
		return errs.Invalid("row %d exceeds the row id limit", rowID)
	}
	if uint64(idx.src.Len()) <= rowID {
		return errs.Invalid("row %d is not in the column (len %d)", rowID, idx.src.Len())
	}

	if rowID > idx.link.Width().Max() {
		if err := idx.build("widen"); err != nil {
			idx.drop()
			return err
		}
		return nil
	}

	w := int64(idx.link.Width())
	if err := idx.res.Grow(w); err != nil {
		idx.drop()
		return errs.NewBudgetError("hashindex insert", w, err)
	}

	b := idx.keyer.Hash(v) & idx.mask
	head := idx.hash.Get(b)
	if head == slots.None {
		idx.occupied++
	}
	idx.link.Grow(rowID + 1)
	idx.link.Put(rowID, head)
	idx.hash.Put(b, rowID)
	idx.rows++
	idx.inserted++
	idx.pending++

	if idx.pending < idx.opts.CheckInterval {
		return nil
	}
	idx.pending = 0
	if !idx.goneBad() {
		return nil
	}
	return idx.degrade()
}

// goneBad reports whether the index is overloaded with long chains. Narrow
// keys have one bucket per value and never degrade.
func (idx *Index[T]) goneBad() bool {
	if idx.keyer.narrow() || idx.occupied == 0 {
		return false
	}
	if idx.rows <= idx.mask+1 {
		return false
	}
	return float64(idx.rows)/float64(idx.occupied) > idx.opts.ChainThreshold
}

func (idx *Index[T]) degrade() error {
	log := idx.opts.Logger.With(
		"rows", idx.rows,
		"buckets", idx.mask+1,
		"occupied", idx.occupied,
		"policy", idx.opts.RebuildPolicy.String(),
	)
	switch idx.opts.RebuildPolicy {
	case RebuildEager:
		log.Info("hash index degraded, rebuilding")
		if err := idx.build("rebuild"); err != nil {
			idx.drop()
			return err
		}
	case RebuildNever:
		log.Debug("hash index degraded, keeping")
	default:
		log.Info("hash index degraded, dropping")
		idx.drop()
	}
	return nil
}

// Destroy releases the index. Later probes yield nothing.
func (idx *Index[T]) Destroy() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.drop()
}

// Valid reports whether the index is installed.
func (idx *Index[T]) Valid() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.valid
}

// Mask returns the bucket mask (bucket count minus one).
func (idx *Index[T]) Mask() uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.mask
}

// Width returns the slot width, or 0 for a dropped index.
func (idx *Index[T]) Width() slots.Width {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if !idx.valid {
		return 0
	}
	return idx.link.Width()
}
