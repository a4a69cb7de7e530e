package hashindex

import "github.com/hupe1980/colcluster/internal/slots"

// Stats describes the shape of an index.
type Stats struct {
	Valid        bool
	Width        slots.Width
	Rows         uint64
	Buckets      uint64
	Occupied     uint64
	LongestChain uint64
	MeanChain    float64
	// Dirty is the number of rows inserted since the last build.
	Dirty    uint64
	Rebuilds int
}

// Stats walks every chain and reports the index shape.
func (idx *Index[T]) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s := Stats{
		Valid:    idx.valid,
		Rows:     idx.rows,
		Dirty:    idx.inserted,
		Rebuilds: idx.rebuilds,
	}
	if !idx.valid {
		return s
	}
	s.Width = idx.link.Width()
	s.Buckets = idx.mask + 1
	s.Occupied = idx.occupied
	if idx.occupied > 0 {
		s.MeanChain = float64(idx.rows) / float64(idx.occupied)
	}
	for b := uint64(0); b <= idx.mask; b++ {
		var n uint64
		for r := idx.hash.Get(b); r != slots.None; r = idx.link.Get(r) {
			n++
		}
		s.LongestChain = max(s.LongestChain, n)
	}
	return s
}
