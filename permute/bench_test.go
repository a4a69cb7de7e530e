package permute

import (
	"testing"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/testutil"
)

func BenchmarkApply(b *testing.B) {
	const n = 1 << 20
	rng := testutil.NewRNG(6)
	col := column.NewFixed(rng.Int64s(n, 1<<40))
	m := rng.Perm(n)

	for _, dir := range []Direction{Scatter, Gather} {
		b.Run(dir.String(), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(n * 8)
			for b.Loop() {
				if _, err := Apply(col, m, dir); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkApplyVarlen(b *testing.B) {
	const n = 1 << 18
	rng := testutil.NewRNG(7)
	col := column.VarlenFromStrings(rng.Strings(n, 1024, 24), true)
	m := rng.Perm(n)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := Apply(col, m, Gather); err != nil {
			b.Fatal(err)
		}
	}
}
