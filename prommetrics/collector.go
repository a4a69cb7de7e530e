package prommetrics

import (
	"time"

	"github.com/hupe1980/colcluster"
	"github.com/prometheus/client_golang/prometheus"
)

// Operation label values.
const (
	OpBuild     = "build"
	OpProbe     = "probe"
	OpInsert    = "insert"
	OpCluster   = "cluster"
	OpPartition = "partition"
	OpApply     = "apply"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

var _ colcluster.MetricsCollector = (*Collector)(nil)

// Collector implements colcluster.MetricsCollector on top of Prometheus
// counters and histograms.
type Collector struct {
	opLatency  *prometheus.HistogramVec
	ops        *prometheus.CounterVec
	rows       *prometheus.CounterVec
	overflow   prometheus.Counter
	partitions prometheus.Counter
	columns    prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
// A nil reg falls back to prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of table operations",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 14),
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total table operations by outcome",
		}, []string{"op", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Rows processed by successful operations",
		}, []string{"op"}),
		overflow: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cluster_overflow_rows_total",
			Help:      "Rows placed outside their home basket",
		}),
		partitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_total",
			Help:      "Partitions produced by radix partitioning",
		}),
		columns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "apply_columns_total",
			Help:      "Columns reordered by applied permutations",
		}),
	}

	for _, m := range []prometheus.Collector{c.opLatency, c.ops, c.rows, c.overflow, c.partitions, c.columns} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// MustNewCollector is like NewCollector but panics on registration errors.
func MustNewCollector(reg prometheus.Registerer, namespace string) *Collector {
	c, err := NewCollector(reg, namespace)
	if err != nil {
		panic(err)
	}

	return c
}

func (c *Collector) observe(op string, d time.Duration, err error) bool {
	status := statusOK
	if err != nil {
		status = statusError
	}

	c.opLatency.WithLabelValues(op, status).Observe(d.Seconds())
	c.ops.WithLabelValues(op, status).Inc()

	return err == nil
}

// RecordBuild implements colcluster.MetricsCollector.
func (c *Collector) RecordBuild(rows int, d time.Duration, err error) {
	if c.observe(OpBuild, d, err) {
		c.rows.WithLabelValues(OpBuild).Add(float64(rows))
	}
}

// RecordProbe implements colcluster.MetricsCollector.
func (c *Collector) RecordProbe(d time.Duration, err error) {
	c.observe(OpProbe, d, err)
}

// RecordInsert implements colcluster.MetricsCollector.
func (c *Collector) RecordInsert(d time.Duration, err error) {
	if c.observe(OpInsert, d, err) {
		c.rows.WithLabelValues(OpInsert).Inc()
	}
}

// RecordCluster implements colcluster.MetricsCollector.
func (c *Collector) RecordCluster(rows int, overflow uint64, d time.Duration, err error) {
	if c.observe(OpCluster, d, err) {
		c.rows.WithLabelValues(OpCluster).Add(float64(rows))
		c.overflow.Add(float64(overflow))
	}
}

// RecordPartition implements colcluster.MetricsCollector.
func (c *Collector) RecordPartition(rows, partitions int, d time.Duration, err error) {
	if c.observe(OpPartition, d, err) {
		c.rows.WithLabelValues(OpPartition).Add(float64(rows))
		c.partitions.Add(float64(partitions))
	}
}

// RecordApply implements colcluster.MetricsCollector.
func (c *Collector) RecordApply(columns, rows int, d time.Duration, err error) {
	if c.observe(OpApply, d, err) {
		c.rows.WithLabelValues(OpApply).Add(float64(rows))
		c.columns.Add(float64(columns))
	}
}
