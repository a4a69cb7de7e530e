package radix

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/internal/errs"
)

// Materialize returns col reordered by the partition map of res.
func Materialize[T column.Elem](col *column.Fixed[T], res *Result) (*column.Fixed[T], error) {
	if len(res.Map) != col.Len() {
		return nil, &errs.CardinalityMismatchError{Name: "map", Expected: col.Len(), Actual: len(res.Map)}
	}
	vals := col.Values()
	out := make([]T, len(vals))
	for i, d := range res.Map {
		out[d] = vals[i]
	}
	dst := column.NewFixed(out)
	dst.SetNulls(moveNulls(col.Nulls(), res.Map))
	return dst, nil
}

// MaterializeIDs returns col reordered so that rows of partition 0 come
// first, then partition 1 and so on, keeping the relative order inside a
// partition. It also returns the exclusive prefix sums of the partitions.
func MaterializeIDs[T column.Elem](col *column.Fixed[T], ids []uint8, parts int) (*column.Fixed[T], []uint64, error) {
	if len(ids) != col.Len() {
		return nil, nil, &errs.CardinalityMismatchError{Name: "ids", Expected: col.Len(), Actual: len(ids)}
	}
	if parts < 1 || parts > 256 {
		return nil, nil, errs.Invalid("partition count %d outside [1, 256]", parts)
	}
	psum := make([]uint64, parts)
	for _, id := range ids {
		if int(id) >= parts {
			return nil, nil, errs.Invalid("partition id %d outside [0, %d)", id, parts)
		}
		psum[id]++
	}
	PrefixSum(psum)

	vals := col.Values()
	cursor := append([]uint64(nil), psum...)
	out := make([]T, len(vals))
	m := make([]uint64, len(vals))
	for i, id := range ids {
		out[cursor[id]] = vals[i]
		m[i] = cursor[id]
		cursor[id]++
	}
	dst := column.NewFixed(out)
	dst.SetNulls(moveNulls(col.Nulls(), m))
	return dst, psum, nil
}

// Split returns one view per partition of a column already materialized in
// partition order. prefix holds the exclusive prefix sums of the partitions.
func Split[T column.Elem](col *column.Fixed[T], prefix []uint64) ([]*column.Fixed[T], error) {
	n := uint64(col.Len())
	out := make([]*column.Fixed[T], len(prefix))
	for p, lo := range prefix {
		hi := n
		if p+1 < len(prefix) {
			hi = prefix[p+1]
		}
		if lo > hi || hi > n {
			return nil, errs.Invalid("partition %d spans [%d, %d) in %d rows", p, lo, hi, n)
		}
		out[p] = col.Slice(int(lo), int(hi))
	}
	return out, nil
}

func moveNulls(bm *roaring.Bitmap, m []uint64) *roaring.Bitmap {
	if bm == nil || bm.IsEmpty() {
		return nil
	}
	out := roaring.New()
	it := bm.Iterator()
	for it.HasNext() {
		out.Add(uint32(m[it.Next()]))
	}
	return out
}
