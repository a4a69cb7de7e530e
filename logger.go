package colcluster

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/colcluster/hashcluster"
	"github.com/hupe1980/colcluster/hashindex"
)

// Logger wraps slog.Logger with colcluster-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithColumn adds a column field to the logger.
func (l *Logger) WithColumn(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("column", name),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

func indexBytes(s hashindex.Stats) string {
	return humanize.IBytes((s.Buckets + s.Rows) * uint64(s.Width))
}

// LogBuild logs a (re)build of a column's hash index.
func (l *Logger) LogBuild(ctx context.Context, column string, s hashindex.Stats, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"column", column,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "index built",
		"column", column,
		"rows", s.Rows,
		"buckets", s.Buckets,
		"width", s.Width.String(),
		"size", indexBytes(s),
		"duration", duration,
	)
}

// LogRebuild logs an index that was rebuilt after it went bad or ran out of
// slot width.
func (l *Logger) LogRebuild(ctx context.Context, column string, s hashindex.Stats) {
	l.InfoContext(ctx, "index rebuilt",
		"column", column,
		"rows", s.Rows,
		"width", s.Width.String(),
		"longest_chain", s.LongestChain,
		"rebuilds", s.Rebuilds,
	)
}

// LogInsertDropped logs an index dropped by a failed insert. The next
// lookup rebuilds it.
func (l *Logger) LogInsertDropped(ctx context.Context, column string, err error) {
	l.WarnContext(ctx, "index dropped on insert",
		"column", column,
		"error", err,
	)
}

// LogCluster logs a hash clustering run.
func (l *Logger) LogCluster(ctx context.Context, column string, s hashcluster.Stats, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cluster failed",
			"column", column,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "table clustered",
		"column", column,
		"rows", s.Rows,
		"baskets", s.Baskets,
		"overflow_rows", s.OverflowPlacements,
		"map_size", humanize.IBytes(8*s.Rows),
		"duration", duration,
	)
}

// LogPartition logs a radix partitioning run.
func (l *Logger) LogPartition(ctx context.Context, column string, bits, rows int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "partition failed",
			"column", column,
			"bits", bits,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "table partitioned",
		"column", column,
		"bits", bits,
		"partitions", 1<<bits,
		"rows", rows,
		"duration", duration,
	)
}

// LogApply logs a permutation applied to the columns of a table.
func (l *Logger) LogApply(ctx context.Context, columns, rows int, direction string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "apply failed",
			"columns", columns,
			"direction", direction,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "permutation applied",
		"columns", columns,
		"rows", rows,
		"direction", direction,
	)
}
