package colcluster

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/hashcluster"
	"github.com/hupe1980/colcluster/hashindex"
	"github.com/hupe1980/colcluster/internal/errs"
	"github.com/hupe1980/colcluster/permute"
	"github.com/hupe1980/colcluster/radix"
	"github.com/hupe1980/colcluster/resource"
)

// Table is a set of named, aligned columns of equal cardinality, each with
// a lazily built hash index.
//
// Lookups may run concurrently with each other and hold the table's read
// lock until their sequence is drained. Append, Cluster, Partition and the
// column management methods take the table's write lock.
type Table struct {
	mu      sync.RWMutex
	opts    options
	names   []string
	columns map[string]*entry
	rows    int
	runs    int
}

type entry struct {
	col column.Column
	idx hashindex.Dynamic
}

// NewTable creates an empty table.
func NewTable(optFns ...Option) *Table {
	return &Table{
		opts:    newOptions(optFns),
		columns: make(map[string]*entry),
	}
}

// Controller returns the resource controller shared by the table's
// operations.
func (t *Table) Controller() *resource.Controller { return t.opts.controller }

func (t *Table) indexOptions() []func(*hashindex.Options) {
	base := func(o *hashindex.Options) {
		o.Controller = t.opts.controller
		o.Logger = t.opts.logger.Logger
	}
	return append([]func(*hashindex.Options){base}, t.opts.indexOptions...)
}

// AddColumn adds col under name. The first column fixes the cardinality of
// the table; later columns must match it.
func (t *Table) AddColumn(name string, col column.Column) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if name == "" {
		return errs.Invalid("empty column name")
	}
	if _, ok := t.columns[name]; ok {
		return columnError("add", name, ErrColumnExists)
	}
	if err := column.CheckLen(col.Len()); err != nil {
		return columnError("add", name, err)
	}
	if len(t.columns) > 0 && col.Len() != t.rows {
		return columnError("add", name, &CardinalityMismatchError{Name: name, Expected: t.rows, Actual: col.Len()})
	}

	idx, err := hashindex.ForColumn(col, t.indexOptions()...)
	if err != nil {
		return columnError("add", name, err)
	}

	t.columns[name] = &entry{col: col, idx: idx}
	t.names = append(t.names, name)
	t.rows = col.Len()
	return nil
}

// Column returns the column stored under name.
func (t *Table) Column(name string) (column.Column, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.columns[name]
	if !ok {
		return nil, false
	}
	return e.col, true
}

// Columns returns the column names in the order they were added.
func (t *Table) Columns() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.names)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rows
}

// Drop removes a column and destroys its index.
func (t *Table) Drop(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.columns[name]
	if !ok {
		return columnError("drop", name, ErrColumnNotFound)
	}
	e.idx.Destroy()
	delete(t.columns, name)
	t.names = slices.DeleteFunc(t.names, func(n string) bool { return n == name })
	if len(t.names) == 0 {
		t.rows = 0
	}
	return nil
}

func (t *Table) lookupEntry(op, name string) (*entry, error) {
	e, ok := t.columns[name]
	if !ok {
		return nil, columnError(op, name, ErrColumnNotFound)
	}
	return e, nil
}

// Lookup returns the rows of column name equal to v, highest row id first.
// The column's index is built on first use and rebuilt after it was
// invalidated. A nil v never matches.
//
// The table's read lock is held while the sequence is being iterated, so
// the consumer must not call Append, Cluster, Partition or the column
// management methods from inside the loop.
func (t *Table) Lookup(ctx context.Context, name string, v any) (iter.Seq[uint64], error) {
	start := time.Now()

	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookupEntry("lookup", name)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return func(func(uint64) bool) {}, nil
	}

	builds := e.idx.Builds()
	seq, err := e.idx.Probe(v)
	t.observeBuild(ctx, name, e, builds, start, err)
	t.opts.metricsCollector.RecordProbe(time.Since(start), err)
	if err != nil {
		return nil, columnError("lookup", name, err)
	}
	return func(yield func(uint64) bool) {
		t.mu.RLock()
		defer t.mu.RUnlock()

		for r := range seq {
			if !yield(r) {
				return
			}
		}
	}, nil
}

// LookupAll is Lookup collected into ascending row ids.
func (t *Table) LookupAll(ctx context.Context, name string, v any) ([]uint64, error) {
	seq, err := t.Lookup(ctx, name, v)
	if err != nil {
		return nil, err
	}
	rows := slices.Collect(seq)
	slices.Sort(rows)
	return rows, nil
}

// Select returns the ascending rows in [lo,hi) of column name equal to v.
// A non-nil cands restricts the result to the rows it contains.
func (t *Table) Select(ctx context.Context, name string, v any, lo, hi uint64, cands *roaring.Bitmap) ([]uint64, error) {
	start := time.Now()

	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookupEntry("select", name)
	if err != nil {
		return nil, err
	}

	builds := e.idx.Builds()
	rows, err := e.idx.Select(v, lo, hi, cands)
	t.observeBuild(ctx, name, e, builds, start, err)
	t.opts.metricsCollector.RecordProbe(time.Since(start), err)
	if err != nil {
		return nil, columnError("select", name, err)
	}
	return rows, nil
}

func (t *Table) observeBuild(ctx context.Context, name string, e *entry, before int, start time.Time, err error) {
	if err != nil {
		if errors.Is(err, ErrAllocationFailure) {
			t.opts.logger.LogBuild(ctx, name, hashindex.Stats{}, 0, err)
			t.opts.metricsCollector.RecordBuild(0, time.Since(start), err)
		}
		return
	}
	if e.idx.Builds() == before {
		return
	}
	stats, _ := e.idx.Stats()
	t.opts.metricsCollector.RecordBuild(int(stats.Rows), time.Since(start), nil)
	if before == 0 {
		t.opts.logger.LogBuild(ctx, name, stats, time.Since(start), nil)
	} else {
		t.opts.logger.LogRebuild(ctx, name, stats)
	}
}

// IndexStats reports the shape of the live index of column name. ok is
// false when the index is not built.
func (t *Table) IndexStats(name string) (stats hashindex.Stats, ok bool, err error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookupEntry("stats", name)
	if err != nil {
		return hashindex.Stats{}, false, err
	}
	stats, ok = e.idx.Stats()
	return stats, ok, nil
}

// Append adds one row. values maps column names to values of the column's
// element type (string or []byte for variable-width columns); missing
// columns and nil values get a null. Live indexes are updated in place.
//
// Append is all-or-nothing over the columns: on a bad value no column
// grows.
func (t *Table) Append(ctx context.Context, values map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.names) == 0 {
		return errs.Invalid("append to a table without columns")
	}
	for name := range values {
		if _, ok := t.columns[name]; !ok {
			return columnError("append", name, ErrColumnNotFound)
		}
	}

	row := t.rows
	for i, name := range t.names {
		if err := t.columns[name].col.AppendAny(values[name]); err != nil {
			for _, done := range t.names[:i] {
				t.columns[done].col.Truncate(row)
			}
			return columnError("append", name, err)
		}
	}
	t.rows++

	for _, name := range t.names {
		e := t.columns[name]
		if !e.idx.Built() {
			continue
		}
		start := time.Now()
		err := e.idx.Insert(uint64(row), values[name])
		t.opts.metricsCollector.RecordInsert(time.Since(start), err)
		if err != nil {
			t.opts.logger.LogInsertDropped(ctx, name, err)
		}
	}
	return nil
}

// Cluster reorders every column so that rows whose key column hashes to
// the same bucket are stored together. The key hashes are taken with the
// mask of the key column's index, so the index is built if necessary.
// All indexes are rebuilt lazily afterwards.
func (t *Table) Cluster(ctx context.Context, key string) (hashcluster.Stats, error) {
	start := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	stats, err := t.cluster(ctx, key)
	t.opts.logger.LogCluster(ctx, key, stats, time.Since(start), err)
	t.opts.metricsCollector.RecordCluster(int(stats.Rows), stats.OverflowPlacements, time.Since(start), err)
	return stats, err
}

func (t *Table) cluster(ctx context.Context, key string) (hashcluster.Stats, error) {
	e, err := t.lookupEntry("cluster", key)
	if err != nil {
		return hashcluster.Stats{}, err
	}

	mask, err := e.idx.Mask()
	if err != nil {
		return hashcluster.Stats{}, columnError("cluster", key, err)
	}

	res, err := hashcluster.Run(hashcluster.Keys(e.col, mask), func(o *hashcluster.Options) {
		o.KeyRange = mask + 1
		o.PageSize = t.opts.pageSize
		o.MemoryPages = t.opts.memoryPages
		o.Controller = t.opts.controller
		o.Logger = t.opts.logger.Logger
	})
	if err != nil {
		return hashcluster.Stats{}, columnError("cluster", key, err)
	}

	if err := t.apply(ctx, "cluster", res.Map, permute.Gather); err != nil {
		return hashcluster.Stats{}, err
	}
	return res.Stats, nil
}

// Partition radix-partitions the table on the integer column name: rows are
// stably reordered by the digit of bits bits starting at bit offset.
// The returned result carries the partition histogram.
func (t *Table) Partition(ctx context.Context, name string, bits, offset int) (*radix.Result, error) {
	start := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	res, err := t.partition(ctx, name, bits, offset)
	t.opts.logger.LogPartition(ctx, name, bits, t.rows, time.Since(start), err)
	parts := 0
	if res != nil {
		parts = res.Partitions()
	}
	t.opts.metricsCollector.RecordPartition(t.rows, parts, time.Since(start), err)
	return res, err
}

func (t *Table) partition(ctx context.Context, name string, bits, offset int) (*radix.Result, error) {
	e, err := t.lookupEntry("partition", name)
	if err != nil {
		return nil, err
	}

	res, err := radixRun(e.col, bits, offset, t.radixOptions)
	if err != nil {
		return nil, columnError("partition", name, err)
	}
	if err := t.apply(ctx, "partition", res.Map, permute.Scatter); err != nil {
		return nil, err
	}
	return res, nil
}

// PartitionBalanced computes partitions of about equal size over the
// sorted integer column name without splitting runs of equal values.
// Sorted rows already are in partition order, so no column is moved.
func (t *Table) PartitionBalanced(ctx context.Context, name string, bits int) (*radix.BalancedResult, error) {
	start := time.Now()

	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookupEntry("partition", name)
	if err != nil {
		return nil, err
	}
	res, err := radixBalanced(e.col, bits, t.radixOptions)
	t.opts.logger.LogPartition(ctx, name, bits, t.rows, time.Since(start), err)
	t.opts.metricsCollector.RecordPartition(t.rows, 1<<max(bits, 0), time.Since(start), err)
	if err != nil {
		return nil, columnError("partition", name, err)
	}
	return res, nil
}

func (t *Table) radixOptions(o *radix.Options) {
	o.Workers = t.opts.workers
	o.Controller = t.opts.controller
	o.Logger = t.opts.logger.Logger
}

// apply reorders every column with m and swaps in fresh indexes. Nothing
// changes when any column fails.
func (t *Table) apply(ctx context.Context, op string, m []uint64, dir permute.Direction) error {
	cols := make(map[string]column.Column, len(t.columns))
	for name, e := range t.columns {
		cols[name] = e.col
	}

	t.runs++
	var cp *permute.Checkpoint
	if t.opts.checkpoint != nil {
		c := *t.opts.checkpoint
		c.Name = path.Join(c.Name, fmt.Sprintf("%s-%06d", op, t.runs))
		cp = &c
	}

	start := time.Now()
	out, err := permute.ApplyAll(ctx, cols, m, dir, func(o *permute.Options) {
		o.Workers = t.opts.workers
		o.Controller = t.opts.controller
		o.Checkpoint = cp
		o.Logger = t.opts.logger.Logger
	})
	t.opts.logger.LogApply(ctx, len(cols), len(m), dir.String(), err)
	t.opts.metricsCollector.RecordApply(len(cols), len(m), time.Since(start), err)
	if err != nil {
		return translateError(err)
	}

	fresh := make(map[string]*entry, len(out))
	for name, c := range out {
		idx, err := hashindex.ForColumn(c, t.indexOptions()...)
		if err != nil {
			return columnError(op, name, err)
		}
		fresh[name] = &entry{col: c, idx: idx}
	}
	for name, e := range t.columns {
		e.idx.Destroy()
		t.columns[name] = fresh[name]
	}
	return nil
}
