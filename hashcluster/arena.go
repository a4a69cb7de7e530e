package hashcluster

import "github.com/hupe1980/colcluster/internal/errs"

// NoOverflow marks a basket without an overflow basket.
const NoOverflow = -1

// Basket is a window [Base,Limit) of free destination rows. Base advances
// as rows are placed. Overflow is the basket that takes its rows once it is
// full, or NoOverflow.
type Basket struct {
	Base     uint64
	Limit    uint64
	Overflow int
}

// Free returns the remaining capacity.
func (b Basket) Free() uint64 { return b.Limit - b.Base }

// Arena holds the baskets of one clustering run.
type Arena struct {
	baskets  []Basket
	overflow uint64
	events   uint64
}

// NewArena cuts [0,n) into count baskets of ⌊n/count⌋ rows; the last basket
// ends at n.
func NewArena(n uint64, count int) *Arena {
	count = max(count, 1)
	per := n / uint64(count)
	a := &Arena{baskets: make([]Basket, count)}
	for i := range a.baskets {
		a.baskets[i] = Basket{
			Base:     uint64(i) * per,
			Limit:    uint64(i+1) * per,
			Overflow: NoOverflow,
		}
	}
	a.baskets[count-1].Limit = n
	return a
}

// Len returns the number of baskets.
func (a *Arena) Len() int { return len(a.baskets) }

// Basket returns basket i.
func (a *Arena) Basket(i int) Basket { return a.baskets[i] }

// MostFree scans the baskets circularly starting after basket after and
// returns the first one with the largest remaining capacity. It reports
// false when every basket is full.
//
// The scan visits every basket, so an overflow event costs O(N).
func (a *Arena) MostFree(after int) (int, bool) {
	n := len(a.baskets)
	best, bestFree := -1, uint64(0)
	for p := 1; p <= n; p++ {
		i := (after + p) % n
		if f := a.baskets[i].Free(); f > bestFree {
			best, bestFree = i, f
		}
	}
	return best, best >= 0
}

// Place takes the next free row of basket bnr, spilling into its overflow
// basket when bnr is full. It reports whether the row went to an overflow
// basket.
func (a *Arena) Place(bnr int) (uint64, bool, error) {
	if bnr < 0 || bnr >= len(a.baskets) {
		return 0, false, errs.Invariant("basket %d outside [0, %d)", bnr, len(a.baskets))
	}
	b := &a.baskets[bnr]
	if b.Base < b.Limit {
		slot := b.Base
		b.Base++
		return slot, false, nil
	}

	target := b.Overflow
	if target == NoOverflow || a.baskets[target].Free() == 0 {
		m, ok := a.MostFree(bnr)
		if !ok {
			return 0, false, errs.Invariant("all %d baskets are full", len(a.baskets))
		}
		b.Overflow = m
		target = m
		a.events++
	}
	o := &a.baskets[target]
	slot := o.Base
	o.Base++
	a.overflow++
	return slot, true, nil
}

// Capacity returns the total remaining capacity.
func (a *Arena) Capacity() uint64 {
	var c uint64
	for _, b := range a.baskets {
		c += b.Free()
	}
	return c
}
