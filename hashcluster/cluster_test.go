package hashcluster

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/internal/errs"
	"github.com/hupe1980/colcluster/resource"
	"github.com/hupe1980/colcluster/testutil"
)

func geometry(pageSize, pages int) func(o *Options) {
	return func(o *Options) {
		o.PageSize = pageSize
		o.MemoryPages = pages
	}
}

func TestSize(t *testing.T) {
	l := Size(1000, 10_000, 4096, 1000)
	assert.Equal(t, 19, l.Baskets)
	assert.Equal(t, uint64(527), l.BucketSize)
	assert.Equal(t, uint64(52), l.PerBasket)
	assert.Equal(t, uint64(10_000), l.KeyRange)

	l = Size(1000, 100, 4096, 1000)
	assert.Equal(t, 1, l.Baskets, "key range below a page")
	assert.Equal(t, uint64(100), l.BucketSize)

	l = Size(3, 1<<20, 8, 1<<20)
	assert.Equal(t, 3, l.Baskets, "never more baskets than rows")

	l = Size(0, 0, 4096, 0)
	assert.Equal(t, 1, l.Baskets)
	assert.Equal(t, uint64(1), l.BucketSize)
}

func TestRunExactFit(t *testing.T) {
	keys := []uint64{7, 0, 5, 2, 6, 1, 4, 3}
	res, err := Run(keys, geometry(8, 40))
	require.NoError(t, err)

	assert.Equal(t, 4, res.Stats.Baskets)
	assert.Equal(t, uint64(2), res.Stats.BucketSize)
	assert.Equal(t, []uint64{1, 5, 3, 7, 2, 6, 0, 4}, res.Map)
	assert.Zero(t, res.Stats.OverflowPlacements)
	assert.Zero(t, res.Stats.OverflowEvents)
}

func TestRunSkewedKeys(t *testing.T) {
	keys := testutil.NewRNG(21).ZipfInts(20_000, 4096, 1.2)
	res, err := Run(keys, geometry(64, 1000), func(o *Options) { o.KeyRange = 4096 })
	require.NoError(t, err)
	require.Len(t, res.Map, len(keys))

	seen := make([]bool, len(keys))
	for _, src := range res.Map {
		require.False(t, seen[src], "source row %d placed twice", src)
		seen[src] = true
	}

	l := res.Stats.Layout
	assert.Equal(t, 100, l.Baskets)
	assert.Positive(t, res.Stats.OverflowPlacements)
	assert.Positive(t, res.Stats.OverflowEvents)

	for b := range l.Baskets {
		lo := uint64(b) * l.PerBasket
		hi := lo + l.PerBasket
		if b == l.Baskets-1 {
			hi = uint64(len(keys))
		}
		assert.True(t, slices.IsSorted(res.Map[lo:hi]), "basket %d keeps arrival order", b)
	}
}

func TestRunGroupsKeys(t *testing.T) {
	keys := testutil.NewRNG(2).ZipfInts(5_000, 512, 0.5)
	res, err := Run(keys, func(o *Options) {
		o.PageSize = 8
		o.MemoryPages = 80
		o.KeyRange = 512
	})
	require.NoError(t, err)

	l := res.Stats.Layout
	home := 0
	for dest, src := range res.Map {
		b := min(uint64(dest)/l.PerBasket, uint64(l.Baskets-1))
		if keys[src]/l.BucketSize == b {
			home++
		}
	}
	assert.Equal(t, uint64(len(keys))-res.Stats.OverflowPlacements, uint64(home))
}

func TestRunKeyRange(t *testing.T) {
	_, err := Run([]uint64{1, 9, 3}, func(o *Options) { o.KeyRange = 8 })
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestRunEmpty(t *testing.T) {
	res, err := Run(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Map)
}

func TestRunAllocationFailure(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})
	_, err := Run(make([]uint64, 100), func(o *Options) { o.Controller = rc })
	require.ErrorIs(t, err, errs.ErrAllocationFailure)
	assert.Zero(t, rc.MemoryUsage())
}

func TestKeys(t *testing.T) {
	col := column.NewFixed([]int32{10, 11, 10, 1 << 20})
	keys := Keys(col, 7)
	require.Len(t, keys, 4)
	for i, k := range keys {
		assert.Equal(t, column.HashValue(col.At(i))&7, k)
	}
	assert.Equal(t, keys[0], keys[2])

	words := column.VarlenFromStrings([]string{"a", "b", "a"}, true)
	wk := Keys(words, 1023)
	assert.Equal(t, wk[0], wk[2])
}
