package colcluster_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/colcluster"
	"github.com/hupe1980/colcluster/column"
)

// Example_lookup demonstrates equality lookups and appends.
func Example_lookup() {
	ctx := context.Background()

	tbl := colcluster.NewTable()
	if err := tbl.AddColumn("id", column.NewFixed([]int32{3, 1, 3, 2})); err != nil {
		log.Fatal(err)
	}
	if err := tbl.AddColumn("name", column.VarlenFromStrings([]string{"a", "b", "c", "d"}, true)); err != nil {
		log.Fatal(err)
	}

	rows, _ := tbl.LookupAll(ctx, "id", int32(3))
	fmt.Println(rows)

	_ = tbl.Append(ctx, map[string]any{"id": int32(3), "name": "e"})
	rows, _ = tbl.LookupAll(ctx, "id", int32(3))
	fmt.Println(rows)

	rows, _ = tbl.LookupAll(ctx, "name", "d")
	fmt.Println(rows)
	// Output:
	// [0 2]
	// [0 2 4]
	// [3]
}

// Example_partition demonstrates radix partitioning a table.
func Example_partition() {
	ctx := context.Background()

	tbl := colcluster.NewTable()
	_ = tbl.AddColumn("k", column.NewFixed([]int64{5, 1, 5, 2, 1}))

	res, err := tbl.Partition(ctx, "k", 2, 0)
	if err != nil {
		log.Fatal(err)
	}
	col, _ := tbl.Column("k")

	fmt.Println(res.Histogram)
	fmt.Println(col.(*column.Fixed[int64]).Values())
	// Output:
	// [0 0 4 5]
	// [5 1 5 1 2]
}

// Example_metrics demonstrates the basic metrics collector.
func Example_metrics() {
	ctx := context.Background()
	metrics := &colcluster.BasicMetricsCollector{}

	tbl := colcluster.NewTable(colcluster.WithMetricsCollector(metrics))
	_ = tbl.AddColumn("id", column.NewFixed([]uint16{1, 2, 3}))

	for range 3 {
		_, _ = tbl.LookupAll(ctx, "id", uint16(2))
	}

	stats := metrics.GetStats()
	fmt.Println("lookups:", stats.ProbeCount, "builds:", stats.BuildCount)
	// Output: lookups: 3 builds: 1
}
