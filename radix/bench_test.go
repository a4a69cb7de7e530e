package radix

import (
	"strconv"
	"testing"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/testutil"
)

func BenchmarkRun(b *testing.B) {
	col := column.NewFixed(testutil.NewRNG(3).Int64s(1<<20, 1<<30))

	for _, bits := range []int{4, 8, 12} {
		b.Run("bits="+strconv.Itoa(bits), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := Run(col, bits, 0); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkBalanced(b *testing.B) {
	col := column.NewFixed(testutil.NewRNG(4).SortedRuns(1<<20, 64))

	b.ReportAllocs()
	for b.Loop() {
		if _, err := Balanced(col, 8); err != nil {
			b.Fatal(err)
		}
	}
}
