package radix

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/internal/errs"
	"github.com/hupe1980/colcluster/resource"
	"github.com/hupe1980/colcluster/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScenario(t *testing.T) {
	col := column.NewFixed([]int32{5, 1, 5, 2, 1})

	hist, err := Histogram(col.Values(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 4, 1, 0}, hist)

	assert.Equal(t, uint64(5), PrefixSum(hist))
	assert.Equal(t, []uint64{0, 0, 4, 5}, hist)

	res, err := Run(col, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 0, 4, 5}, res.Histogram)
	assert.Equal(t, []uint64{0, 4, 1, 0}, res.Counts)
	assert.Equal(t, []uint64{0, 1, 2, 4, 3}, res.Map)

	m, err := Scatter(col.Values(), 2, 0, res.Histogram)
	require.NoError(t, err)
	assert.Equal(t, res.Map, m)
	assert.Equal(t, []uint64{0, 0, 4, 5}, res.Histogram, "scatter keeps the prefix sums")
}

func TestDigit(t *testing.T) {
	assert.Equal(t, uint64(1), Digit(int32(5), 2, 0))
	assert.Equal(t, uint64(2), Digit(int32(5), 2, 1))
	assert.Equal(t, uint64(1), Digit(int32(5), 2, -3), "negative offset is clamped")
	assert.Equal(t, uint64(0xF), Digit(int8(-1), 4, 4))
	assert.Equal(t, uint64(0), Digit(int8(-1), 4, 8), "bits above the value width are zero")
	assert.Equal(t, uint64(0xFF), Digit(int64(-1), 8, 56))
}

func TestBitWidthValidation(t *testing.T) {
	col := column.NewFixed([]uint32{1, 2})
	for _, bits := range []int{-1, 32, 40} {
		_, err := Run(col, bits, 0)
		require.ErrorIs(t, err, errs.ErrInvalidArgument)
		var bwe *errs.BitWidthError
		require.ErrorAs(t, err, &bwe)
		assert.Equal(t, bits, bwe.Bits)
	}

	res, err := Run(col, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, res.Map)
	assert.Equal(t, 1, res.Partitions())
}

func checkPartition(t *testing.T, vals []int64, res *Result) {
	t.Helper()
	n := len(vals)
	require.Len(t, res.Map, n)

	seen := make([]bool, n)
	for _, d := range res.Map {
		require.Less(t, d, uint64(n))
		require.False(t, seen[d], "slot %d written twice", d)
		seen[d] = true
	}

	require.True(t, slices.IsSorted(res.Histogram))
	for d := range res.Counts {
		var below uint64
		for _, c := range res.Counts[:d] {
			below += c
		}
		assert.Equal(t, below, res.Histogram[d])
	}

	last := make(map[uint64]uint64)
	for i, v := range vals {
		d := Digit(v, res.Bits, res.Offset)
		slot := res.Map[i]
		require.GreaterOrEqual(t, slot, res.Histogram[d])
		require.Less(t, slot, res.Histogram[d]+res.Counts[d])
		if prev, ok := last[d]; ok {
			require.Greater(t, slot, prev, "rows of one digit keep input order")
		}
		last[d] = slot
	}
}

func TestRunProperties(t *testing.T) {
	vals := testutil.NewRNG(11).Int64s(50_000, 1<<40)
	col := column.NewFixed(vals)

	for _, tc := range []struct{ bits, offset int }{{1, 0}, {4, 3}, {8, 20}, {12, 0}} {
		res, err := Run(col, tc.bits, tc.offset)
		require.NoError(t, err)
		checkPartition(t, vals, res)
	}
}

func TestRunParallelMatchesSerial(t *testing.T) {
	vals := testutil.NewRNG(5).Int64s(4*minRowsPerWorker+123, 1<<20)
	col := column.NewFixed(vals)

	serial, err := Run(col, 6, 2)
	require.NoError(t, err)

	parallel, err := Run(col, 6, 2, func(o *Options) { o.Workers = 4 })
	require.NoError(t, err)

	assert.Equal(t, serial.Histogram, parallel.Histogram)
	assert.Equal(t, serial.Counts, parallel.Counts)
	assert.Equal(t, serial.Map, parallel.Map)
}

func TestRunWorkersBoundedByController(t *testing.T) {
	rc := resource.NewController(resource.Config{MaxBackgroundWorkers: 1})
	require.True(t, rc.TryAcquireBackground())
	defer rc.ReleaseBackground()

	vals := testutil.NewRNG(5).Int64s(2*minRowsPerWorker, 1<<20)
	res, err := Run(column.NewFixed(vals), 4, 0, func(o *Options) {
		o.Workers = 8
		o.Controller = rc
	})
	require.NoError(t, err)
	checkPartition(t, vals, res)
}

func TestRunAllocationFailure(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1024})
	col := column.NewFixed(make([]int32, 1000))

	_, err := Run(col, 2, 0, func(o *Options) { o.Controller = rc })
	require.ErrorIs(t, err, errs.ErrAllocationFailure)
	assert.Equal(t, int64(0), rc.MemoryUsage(), "partial reservations are released")

	_, err = Run(col, 20, 0, func(o *Options) { o.Controller = rc })
	require.ErrorIs(t, err, errs.ErrAllocationFailure)
	assert.Equal(t, int64(0), rc.MemoryUsage())
}

func TestRunReleasesReservation(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
	_, err := Run(column.NewFixed(make([]int32, 1000)), 4, 0, func(o *Options) { o.Controller = rc })
	require.NoError(t, err)
	assert.Equal(t, int64(0), rc.MemoryUsage())
	assert.Positive(t, rc.MemoryPeak())
}

func TestMaterialize(t *testing.T) {
	col := column.NewFixed([]int32{5, 1, 5, 2, 1})
	col.SetNull(3)

	res, err := Run(col, 2, 0)
	require.NoError(t, err)

	out, err := Materialize(col, res)
	require.NoError(t, err)
	assert.Equal(t, []int32{5, 1, 5, 1, 2}, out.Values())
	assert.True(t, out.IsNull(4))
	assert.False(t, out.IsNull(3))

	parts, err := Split(out, res.Histogram)
	require.NoError(t, err)
	require.Len(t, parts, 4)
	assert.Equal(t, 0, parts[0].Len())
	assert.Equal(t, []int32{5, 1, 5, 1}, parts[1].Values())
	assert.Equal(t, []int32{2}, parts[2].Values())
	assert.True(t, parts[2].IsNull(0))
	assert.Equal(t, 0, parts[3].Len())

	_, err = Materialize(column.NewFixed([]int32{1}), res)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestSplitRejectsBadPrefix(t *testing.T) {
	_, err := Split(column.NewFixed([]int32{1, 2}), []uint64{0, 3})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}
