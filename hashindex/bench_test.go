package hashindex

import (
	"testing"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/testutil"
)

func BenchmarkForColumnBuild(b *testing.B) {
	const n = 1 << 20
	vals := testutil.NewRNG(1).Int64s(n, n/4)

	b.ReportAllocs()
	for b.Loop() {
		idx, err := ForColumn(column.NewFixed(vals))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := idx.Mask(); err != nil {
			b.Fatal(err)
		}
		idx.Destroy()
	}
}

func BenchmarkProbe(b *testing.B) {
	const n = 1 << 20
	rng := testutil.NewRNG(2)
	vals := rng.Int64s(n, n/4)

	idx, err := ForColumn(column.NewFixed(vals))
	if err != nil {
		b.Fatal(err)
	}
	defer idx.Destroy()
	if _, err := idx.Mask(); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	i := 0
	for b.Loop() {
		seq, err := idx.Probe(vals[i%n])
		if err != nil {
			b.Fatal(err)
		}
		for range seq {
		}
		i++
	}
}
