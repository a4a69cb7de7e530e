package permute

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colcluster/blobstore"
	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/resource"
	"github.com/hupe1980/colcluster/testutil"
)

func withCheckpoint(cp *Checkpoint) func(o *Options) {
	return func(o *Options) { o.Checkpoint = cp }
}

func TestCheckpointGatherSegments(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(21)
	const n = 10
	vals := rng.Int64s(n, 50)
	m := rng.Perm(n)

	for _, codec := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			src := column.NewFixed(vals)
			src.SetNull(int(m[4]))

			out, err := ApplyContext(ctx, src, m, Gather, withCheckpoint(&Checkpoint{
				Every:       3,
				Sink:        store,
				Compression: codec,
				Name:        "ckpt",
			}))
			require.NoError(t, err)
			got := out.(*column.Fixed[int64])

			names, err := store.List(ctx, "ckpt/")
			require.NoError(t, err)
			require.Equal(t, []string{
				"ckpt/00000000.seg", "ckpt/00000001.seg", "ckpt/00000002.seg", "ckpt/00000003.seg",
			}, names)

			for seq, name := range names {
				seg, err := LoadSegment(ctx, store, name)
				require.NoError(t, err)
				lo := seq * 3
				hi := min(lo+3, n)
				assert.Equal(t, uint64(lo), seg.FirstRow)
				assert.Equal(t, uint64(hi-lo), seg.Rows)
				assert.Equal(t, column.KindInt64, seg.Kind)

				sc := seg.Column.(*column.Fixed[int64])
				assert.Equal(t, got.Values()[lo:hi], sc.Values())
				for i := lo; i < hi; i++ {
					assert.Equal(t, got.IsNull(i), sc.IsNull(i-lo), "row %d", i)
				}
			}
		})
	}
}

func TestCheckpointCompressesRepetitiveData(t *testing.T) {
	ctx := context.Background()
	const n = 4096
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = 7
	}
	m := testutil.NewRNG(1).Perm(n)

	for _, codec := range []Compression{CompressionLZ4, CompressionZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			_, err := Apply(column.NewFixed(vals), m, Scatter, withCheckpoint(&Checkpoint{
				Sink:        store,
				Compression: codec,
			}))
			require.NoError(t, err)

			name := SegmentName("", "", 0)
			seg, err := LoadSegment(ctx, store, name)
			require.NoError(t, err)
			assert.Equal(t, codec, seg.Compression)
			assert.Equal(t, vals, seg.Column.(*column.Fixed[int64]).Values())

			blob, err := store.Open(ctx, name)
			require.NoError(t, err)
			assert.Less(t, blob.Size(), int64(n*8/4))
			require.NoError(t, blob.Close())
		})
	}
}

func TestCheckpointScatterWritesAtEnd(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	src := column.VarlenFromStrings([]string{"x", "yy", "zzz", "", "wwww"}, true)
	src.SetNull(3)
	m := []uint64{4, 3, 2, 1, 0}

	out, err := ApplyContext(ctx, src, m, Scatter, withCheckpoint(&Checkpoint{
		Every:       2,
		Sink:        store,
		Compression: CompressionZstd,
		Name:        "perm",
	}))
	require.NoError(t, err)
	got := out.(*column.Varlen)

	names, err := store.List(ctx, "perm/")
	require.NoError(t, err)
	require.Len(t, names, 3)

	row := 0
	for _, name := range names {
		seg, err := LoadSegment(ctx, store, name)
		require.NoError(t, err)
		sc := seg.Column.(*column.Varlen)
		require.True(t, sc.HasHashes())
		for i := range sc.Len() {
			assert.Equal(t, got.String(row), sc.String(i))
			assert.Equal(t, got.IsNull(row), sc.IsNull(i))
			want, _ := got.RowHash(row)
			h, _ := sc.RowHash(i)
			assert.Equal(t, want, h)
			row++
		}
	}
	assert.Equal(t, 5, row)
}

func TestCheckpointApplyAllNamesSegmentsByColumn(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewLocalStore(t.TempDir())
	cols := map[string]column.Column{
		"id":   column.NewFixed([]uint32{1, 2, 3}),
		"name": column.VarlenFromStrings([]string{"a", "b", "c"}, false),
	}
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})

	_, err := ApplyAll(ctx, cols, []uint64{2, 1, 0}, Gather, func(o *Options) {
		o.Controller = rc
		o.Checkpoint = &Checkpoint{Sink: store, Name: "run-1"}
	})
	require.NoError(t, err)

	names, err := store.List(ctx, "run-1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1/id/00000000.seg", "run-1/name/00000000.seg"}, names)

	seg, err := LoadSegment(ctx, store, "run-1/id/00000000.seg")
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 2, 1}, seg.Column.(*column.Fixed[uint32]).Values())
}

func TestLoadSegmentDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	_, err := Apply(column.NewFixed([]int32{1, 2, 3, 4}), []uint64{0, 1, 2, 3}, Gather,
		withCheckpoint(&Checkpoint{Sink: store}))
	require.NoError(t, err)

	name := SegmentName("", "", 0)
	data, err := blobstore.ReadAll(ctx, store, name)
	require.NoError(t, err)

	flipped := append([]byte(nil), data...)
	flipped[len(flipped)-1] ^= 0xff
	require.NoError(t, store.Put(ctx, "flipped", flipped))
	_, err = LoadSegment(ctx, store, "flipped")
	assert.ErrorIs(t, err, ErrCorruptSegment)

	require.NoError(t, store.Put(ctx, "short", data[:10]))
	_, err = LoadSegment(ctx, store, "short")
	assert.ErrorIs(t, err, ErrCorruptSegment)

	_, err = LoadSegment(ctx, store, "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestLoadSegmentRejectsBadHeader(t *testing.T) {
	ctx := context.Background()

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			vals := make([]int64, 512)
			for i := range vals {
				vals[i] = int64(i % 4)
			}
			m := make([]uint64, len(vals))
			for i := range m {
				m[i] = uint64(i)
			}
			_, err := Apply(column.NewFixed(vals), m, Gather,
				withCheckpoint(&Checkpoint{Sink: store, Compression: c}))
			require.NoError(t, err)

			data, err := blobstore.ReadAll(ctx, store, SegmentName("", "", 0))
			require.NoError(t, err)

			tests := []struct {
				name   string
				off    int
				value  uint64
				resign bool
			}{
				{"rows unsigned", 16, math.MaxUint64, false},
				{"raw length unsigned", 24, 1 << 40, false},
				{"rows", 16, 1 << 40, true},
				{"rows off by one", 16, uint64(len(vals)) + 1, true},
				{"raw length", 24, 1 << 40, true},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					bad := append([]byte(nil), data...)
					binary.LittleEndian.PutUint64(bad[tt.off:], tt.value)
					if tt.resign {
						binary.LittleEndian.PutUint32(bad[40:], segmentChecksum(bad[:40], bad[headerSize:]))
					}

					require.NoError(t, store.Put(ctx, "bad", bad))
					require.NotPanics(t, func() {
						_, err = LoadSegment(ctx, store, "bad")
					})
					assert.ErrorIs(t, err, ErrCorruptSegment)
				})
			}
		})
	}
}

type failingStore struct {
	*blobstore.MemoryStore
}

var errSinkDown = errors.New("sink down")

func (failingStore) Create(context.Context, string) (blobstore.WritableBlob, error) {
	return nil, errSinkDown
}

func TestCheckpointSinkFailureFailsApply(t *testing.T) {
	store := failingStore{blobstore.NewMemoryStore()}
	out, err := Apply(column.NewFixed([]int32{1, 2}), []uint64{1, 0}, Gather,
		withCheckpoint(&Checkpoint{Sink: store}))
	assert.Nil(t, out)
	assert.ErrorIs(t, err, errSinkDown)
}
