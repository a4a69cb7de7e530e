package slots

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidthFor(t *testing.T) {
	tests := []struct {
		n    uint64
		want Width
	}{
		{0, Width2},
		{1000, Width2},
		{math.MaxUint16 - 1, Width2},
		{math.MaxUint16, Width4},
		{1_000_000, Width4},
		{math.MaxUint32 - 1, Width4},
		{math.MaxUint32, Width8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WidthFor(tt.n), "n=%d", tt.n)
	}
}

func TestWidthMaxCoversWidthFor(t *testing.T) {
	for _, n := range []uint64{1, 60000, math.MaxUint16 - 1, math.MaxUint16, 1 << 20} {
		w := WidthFor(n)
		assert.GreaterOrEqual(t, w.Max(), n-1)
	}
	assert.Equal(t, Width4, Width2.Next())
	assert.Equal(t, Width8, Width4.Next())
	assert.Equal(t, Width8, Width8.Next())
}

func TestArray(t *testing.T) {
	for _, w := range []Width{Width2, Width4, Width8} {
		t.Run(w.String(), func(t *testing.T) {
			a := New(w, 8)
			require.Equal(t, uint64(8), a.Len())
			for i := uint64(0); i < 8; i++ {
				assert.Equal(t, uint64(None), a.Get(i))
			}

			a.Put(3, 7)
			a.Put(4, w.Max())
			assert.Equal(t, uint64(7), a.Get(3))
			assert.Equal(t, w.Max(), a.Get(4))

			a.Put(3, None)
			assert.Equal(t, uint64(None), a.Get(3))

			a.Grow(20)
			require.Equal(t, uint64(20), a.Len())
			assert.Equal(t, uint64(None), a.Get(19))
			assert.Equal(t, w.Max(), a.Get(4))
		})
	}
}

func TestWiden(t *testing.T) {
	a := New(Width2, 4)
	a.Put(0, 5)
	a.Put(2, 65534)

	b := a.Widen(Width4)
	require.Equal(t, Width4, b.Width())
	assert.Equal(t, uint64(5), b.Get(0))
	assert.Equal(t, uint64(None), b.Get(1))
	assert.Equal(t, uint64(65534), b.Get(2))

	b.Put(1, 70000)
	assert.Equal(t, uint64(70000), b.Get(1))

	assert.Same(t, b, b.Widen(Width2))
	assert.Equal(t, int64(32), Bytes(Width8, 4))
}
