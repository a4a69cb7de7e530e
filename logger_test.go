package colcluster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colcluster/column"
	"github.com/hupe1980/colcluster/hashcluster"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_LogCluster(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.LogCluster(context.Background(), "id", hashcluster.Stats{Rows: 1024, OverflowPlacements: 3}, 0, nil)
	l.LogCluster(context.Background(), "id", hashcluster.Stats{}, 0, errors.New("boom"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "table clustered", lines[0]["msg"])
	assert.Equal(t, "8.0 KiB", lines[0]["map_size"])
	assert.Equal(t, float64(3), lines[0]["overflow_rows"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, nil)).WithColumn("k").WithCount(7)

	l.Info("hello")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "k", lines[0]["column"])
	assert.Equal(t, float64(7), lines[0]["count"])
}

func TestLogger_TableOperations(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tbl := NewTable(WithLogger(l))
	require.NoError(t, tbl.AddColumn("k", column.NewFixed([]int64{5, 1, 5, 2, 1})))

	_, err := tbl.LookupAll(ctx, "k", int64(5))
	require.NoError(t, err)
	_, err = tbl.Partition(ctx, "k", 2, 0)
	require.NoError(t, err)

	var msgs []string
	for _, line := range decodeLines(t, &buf) {
		msgs = append(msgs, line["msg"].(string))
	}
	assert.Contains(t, msgs, "index built")
	assert.Contains(t, msgs, "permutation applied")
	assert.Contains(t, msgs, "table partitioned")
}

func TestNoopLogger(t *testing.T) {
	assert.False(t, NoopLogger().Enabled(context.Background(), slog.LevelError))
}
