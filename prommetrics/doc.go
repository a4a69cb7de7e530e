// Package prommetrics exports colcluster operation metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	c, err := prommetrics.NewCollector(reg, "colcluster")
//	if err != nil {
//		return err
//	}
//	tbl := colcluster.NewTable(colcluster.WithMetricsCollector(c))
package prommetrics
