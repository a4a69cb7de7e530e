package column

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colcluster/internal/errs"
	"github.com/hupe1980/colcluster/internal/hash"
)

func TestKind(t *testing.T) {
	assert.Equal(t, KindInt8, NewFixed([]int8{}).Kind())
	assert.Equal(t, KindUint16, NewFixed([]uint16{}).Kind())
	assert.Equal(t, KindInt32, NewFixed([]int32{}).Kind())
	assert.Equal(t, KindFloat64, NewFixed([]float64{}).Kind())
	assert.Equal(t, KindVarlen, NewVarlen(false).Kind())
	assert.Equal(t, "float32", KindFloat32.String())
	assert.Equal(t, "Kind(200)", Kind(200).String())
}

func TestFixedWidth(t *testing.T) {
	assert.Equal(t, 1, NewFixed([]uint8{}).Width())
	assert.Equal(t, 2, NewFixed([]int16{}).Width())
	assert.Equal(t, 4, NewFixed([]float32{}).Width())
	assert.Equal(t, 8, NewFixed([]int64{}).Width())
}

func TestFixedAppendAndNulls(t *testing.T) {
	c := NewFixedWithCapacity[int32](4)
	c.Append(7)
	c.AppendNull()
	require.NoError(t, c.AppendAny(int32(9)))
	require.NoError(t, c.AppendAny(nil))

	require.Equal(t, 4, c.Len())
	assert.Equal(t, int32(7), c.At(0))
	assert.Equal(t, int32(0), c.At(1))
	assert.Equal(t, int32(9), c.At(2))
	assert.False(t, c.IsNull(0))
	assert.True(t, c.IsNull(1))
	assert.True(t, c.IsNull(3))
	assert.Equal(t, uint64(2), c.Nulls().GetCardinality())

	err := c.AppendAny("nope")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	assert.Equal(t, 4, c.Len())
}

func TestFixedRaw(t *testing.T) {
	c := NewFixed([]uint16{0x0102, 0x0304})
	raw := c.Raw()
	require.Len(t, raw, 4)

	raw[0], raw[1] = raw[2], raw[3]
	assert.Equal(t, c.At(0), c.At(1))
	assert.Nil(t, NewFixed([]uint16{}).Raw())
}

func TestFixedCloneIsDeep(t *testing.T) {
	c := NewFixed([]int64{1, 2, 3})
	c.SetNull(1)

	cl := c.Clone()
	c.Set(0, 100)
	c.SetNull(2)

	assert.Equal(t, int64(1), cl.At(0))
	assert.True(t, cl.IsNull(1))
	assert.False(t, cl.IsNull(2))
}

func TestFixedSlice(t *testing.T) {
	c := NewFixed([]int32{10, 11, 12, 13, 14})
	c.SetNull(1)
	c.SetNull(3)

	s := c.Slice(2, 5)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, []int32{12, 13, 14}, s.Values())
	assert.False(t, s.IsNull(0))
	assert.True(t, s.IsNull(1))

	s.Append(99)
	assert.Equal(t, int32(14), c.At(4))
	assert.Equal(t, 5, c.Len())
}

func TestFixedIsSorted(t *testing.T) {
	assert.True(t, NewFixed([]int32{}).IsSorted())
	assert.True(t, NewFixed([]int32{1, 1, 2, 5}).IsSorted())
	assert.False(t, NewFixed([]int32{1, 3, 2}).IsSorted())
}

func TestHashValue(t *testing.T) {
	t.Run("narrow keys are their own hash", func(t *testing.T) {
		assert.Equal(t, uint64(200), HashValue(uint8(200)))
		assert.Equal(t, uint64(0xFF), HashValue(int8(-1)))
		assert.Equal(t, uint64(0xFFFF), HashValue(int16(-1)))
	})

	t.Run("wide keys are mixed", func(t *testing.T) {
		assert.Equal(t, uint64(hash.Mix32(12345)), HashValue(int32(12345)))
		assert.Equal(t, uint64(hash.Mix64(1<<40|3)), HashValue(uint64(1<<40|3)))
	})

	t.Run("negative zero folds onto zero", func(t *testing.T) {
		assert.Equal(t, HashValue(0.0), HashValue(math.Copysign(0, -1)))
		assert.Equal(t, HashValue(float32(0)), HashValue(float32(math.Copysign(0, -1))))
	})
}

func TestVarlen(t *testing.T) {
	c := VarlenFromStrings([]string{"alpha", "", "gamma"}, true)
	c.AppendNull()
	require.NoError(t, c.AppendAny([]byte("delta")))

	require.Equal(t, 5, c.Len())
	assert.Equal(t, "alpha", c.String(0))
	assert.Equal(t, "", c.String(1))
	assert.Equal(t, "gamma", c.String(2))
	assert.True(t, c.IsNull(3))
	assert.False(t, c.IsNull(1))
	assert.Equal(t, "delta", c.String(4))
	assert.Equal(t, len("alphagammadelta"), c.HeapSize())

	h, ok := c.RowHash(2)
	require.True(t, ok)
	assert.Equal(t, hash.String("gamma"), h)
	assert.Equal(t, h, c.HashRow(2))

	plain := VarlenFromStrings([]string{"gamma"}, false)
	_, ok = plain.RowHash(0)
	assert.False(t, ok)
	assert.Equal(t, h, plain.HashRow(0))

	require.ErrorIs(t, c.AppendAny(42), errs.ErrInvalidArgument)
}

func TestVarlenAtIsReadOnlyView(t *testing.T) {
	c := VarlenFromStrings([]string{"ab", "cd"}, false)
	b := c.At(0)
	b = append(b, 'x')
	assert.Equal(t, "abx", string(b))
	assert.Equal(t, "cd", c.String(1))
}

func TestVarlenCloneAndSlice(t *testing.T) {
	c := VarlenFromStrings([]string{"a", "bb", "ccc", "dddd"}, true)
	c.SetNull(2)

	cl := c.Clone()
	c.AppendString("eeeee")
	assert.Equal(t, 4, cl.Len())
	assert.True(t, cl.IsNull(2))

	s := c.Slice(1, 3)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, "bb", s.String(0))
	assert.Equal(t, "ccc", s.String(1))
	assert.True(t, s.IsNull(1))
	h, ok := s.RowHash(0)
	require.True(t, ok)
	assert.Equal(t, hash.String("bb"), h)
}

func TestTruncate(t *testing.T) {
	f := NewFixed([]int16{1, 2, 3, 4})
	f.SetNull(1)
	f.SetNull(3)
	f.Truncate(2)
	assert.Equal(t, []int16{1, 2}, f.Values())
	assert.True(t, f.IsNull(1))
	assert.Equal(t, uint64(1), f.Nulls().GetCardinality())
	f.Truncate(5)
	assert.Equal(t, 2, f.Len())

	v := VarlenFromStrings([]string{"a", "bb", "ccc"}, true)
	v.SetNull(2)
	v.Truncate(1)
	require.Equal(t, 1, v.Len())
	assert.Equal(t, 1, v.HeapSize())
	assert.False(t, v.IsNull(2))

	v.AppendString("zz")
	assert.Equal(t, "zz", v.String(1))
	h, ok := v.RowHash(1)
	require.True(t, ok)
	assert.Equal(t, hash.String("zz"), h)
}

func TestCheckLen(t *testing.T) {
	require.NoError(t, CheckLen(0))
	require.NoError(t, CheckLen(MaxRows))
	require.ErrorIs(t, CheckLen(MaxRows+1), errs.ErrInvalidArgument)

	// the largest row id of a full column still fits a roaring bitmap
	assert.Equal(t, uint64(math.MaxUint32), uint64(MaxRows-1))
}
