package report

import (
	"bytes"
	"crudbench/metrics"
	"crudbench/results"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, 100, metrics.Summary{
		"insert_batch": {Min: 0.01, Max: 0.03, Avg: 0.02, Median: 0.02, Count: 3},
		"fetch_simple": {Min: 0.001, Max: 0.001, Avg: 0.001, Median: 0.001, Count: 6},
	})

	out := buf.String()
	assert.Contains(t, out, "data size 100")
	assert.Contains(t, out, "Operation: insert_batch\n  Average time: 0.0200 seconds")
	assert.Contains(t, out, "Number of executions: 6")
	assert.Less(t, strings.Index(out, "fetch_simple"), strings.Index(out, "insert_batch"))
}

func TestCompare(t *testing.T) {
	now := time.Now()
	mongo := []results.Record{
		results.NewRecord(10, 1, now, metrics.Summary{"fetch_simple": {Avg: 0.002, Count: 2}}),
		results.NewRecord(100, 1, now, metrics.Summary{"fetch_simple": {Avg: 0.005, Count: 2}}),
	}
	sql := []results.Record{
		results.NewRecord(10, 1, now, metrics.Summary{"fetch_simple": {Avg: 0.001, Count: 2}}),
		results.NewRecord(1000, 1, now, metrics.Summary{"fetch_simple": {Avg: 0.1, Count: 2}}),
	}

	var buf bytes.Buffer
	require.NoError(t, Compare(&buf, "riak", mongo, "postgres", sql, []string{"fetch_simple", "insert_batch"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "riak avg (s)")
	assert.Regexp(t, `fetch_simple\s+10\s+0\.0020\s+0\.0010\s+postgres`, lines[1])
}
