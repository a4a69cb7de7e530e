package hashindex

import (
	"iter"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Lazy builds its index on first use and rebuilds it after it was dropped
// or invalidated.
type Lazy[T any] struct {
	mu     sync.Mutex
	src    Source[T]
	keyer  Keyer[T]
	optFns []func(o *Options)
	idx    *Index[T]
	builds int
}

// NewLazy returns a lazily built index over src.
func NewLazy[T any](src Source[T], keyer Keyer[T], optFns ...func(o *Options)) *Lazy[T] {
	return &Lazy[T]{src: src, keyer: keyer, optFns: optFns}
}

// Get returns the live index, building it if necessary.
func (l *Lazy[T]) Get() (*Index[T], error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get()
}

func (l *Lazy[T]) get() (*Index[T], error) {
	if l.idx != nil && l.idx.Valid() {
		return l.idx, nil
	}
	if l.idx != nil {
		l.idx.Destroy()
		l.idx = nil
	}
	idx, err := Build(l.src, l.keyer, l.optFns...)
	if err != nil {
		return nil, err
	}
	l.idx = idx
	l.builds++
	return idx, nil
}

// Probe returns the rows equal to v, building the index first if needed.
func (l *Lazy[T]) Probe(v T) (iter.Seq[uint64], error) {
	idx, err := l.Get()
	if err != nil {
		return nil, err
	}
	return idx.Probe(v), nil
}

// Select is Index.Select on the live index.
func (l *Lazy[T]) Select(v T, lo, hi uint64, cands *roaring.Bitmap) ([]uint64, error) {
	idx, err := l.Get()
	if err != nil {
		return nil, err
	}
	return idx.Select(v, lo, hi, cands), nil
}

// Insert forwards the row to a live index. Without one it does nothing; the
// next build covers the row.
func (l *Lazy[T]) Insert(rowID uint64, v T) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.idx == nil {
		return nil
	}
	return l.idx.Insert(rowID, v)
}

// Invalidate drops the current index. The next probe rebuilds it.
func (l *Lazy[T]) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.idx != nil {
		l.idx.Destroy()
		l.idx = nil
	}
}

// Destroy is Invalidate; the Lazy may still be reused.
func (l *Lazy[T]) Destroy() { l.Invalidate() }

// Built reports whether a live index is installed.
func (l *Lazy[T]) Built() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.idx != nil && l.idx.Valid()
}

// Builds returns how many times the index was built from scratch.
func (l *Lazy[T]) Builds() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.builds
}

// Stats reports the live index shape, if one is installed.
func (l *Lazy[T]) Stats() (Stats, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.idx == nil {
		return Stats{}, false
	}
	return l.idx.Stats(), true
}
