// Package hashcluster reorders rows so that rows with equal hash keys end up
// physically close.
//
// The destination space [0,n) is cut into N baskets of ⌊n/N⌋ rows each, the
// last one taking the remainder. A row with key k belongs to basket
// k/bsize, where bsize = ⌈keyRange/N⌉. When a basket is full its rows spill
// into an overflow basket: the one with the most remaining capacity found
// by a circular scan starting right after the full basket. The basket
// count is derived from the memory page count so that a basket roughly
// fits a page of row ids.
//
// Run returns a gather map: Map[dest] is the source row placed at dest.
package hashcluster
