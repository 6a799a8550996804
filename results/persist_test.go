package results

import (
	"crudbench/metrics"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(size int) Record {
	return NewRecord(size, 3, time.Date(2024, 11, 20, 12, 0, size, 0, time.UTC), metrics.Summary{
		"insert_batch":             {Min: 0.01, Max: 0.03, Avg: 0.02, Median: 0.02, Count: 3},
		fmt.Sprintf("op_%d", size): {Min: 1, Max: 1, Avg: 1, Median: 1, Count: 1},
	})
}

func TestAppendSequentially(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("%d records", n), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "results.json")

			expected := []Record{}
			for i := 0; i < n; i++ {
				r := record((i + 1) * 10)
				require.NoError(t, Append(path, r))
				expected = append(expected, r)
			}

			loaded, err := Load(path)
			require.NoError(t, err)
			require.Len(t, loaded, n)
			for i := range expected {
				assert.Equal(t, expected[i].DataSize, loaded[i].DataSize)
				assert.Equal(t, expected[i].Iterations, loaded[i].Iterations)
				assert.True(t, expected[i].Timestamp.Equal(loaded[i].Timestamp))
				assert.Equal(t, expected[i].PerformanceStats, loaded[i].PerformanceStats)
			}
		})
	}
}

func TestAppendWireFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, Append(path, record(10)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw []map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)
	assert.Equal(t, 10., raw[0]["test_info"]["data_size"])
	assert.Equal(t, 3., raw[0]["test_info"]["iterations"])
	assert.Equal(t, "2024-11-20T12:00:10Z", raw[0]["test_info"]["timestamp"])

	stats := raw[0]["performance_stats"]["insert_batch"].(map[string]any)
	assert.Equal(t, 3., stats["count"])
	assert.Equal(t, 0.02, stats["avg"])
	assert.Equal(t, byte('['), data[0])
	assert.Equal(t, byte(']'), data[len(data)-1])
}

func TestAppendToEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	require.NoError(t, Append(path, record(10)))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestAppendToEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte("[ ]\n"), 0o644))

	require.NoError(t, Append(path, record(10)))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 10, loaded[0].DataSize)
}

func TestAppendRecoversBareObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"note": "written by hand"}`), 0o644))

	require.NoError(t, Append(path, record(100)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, "written by hand", raw[0]["note"])
	assert.Contains(t, raw[1], "performance_stats")
}

func TestAppendRefusesToWriteInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	truncated := []byte(`{"test_info": {"data_size": 10`)
	require.NoError(t, os.WriteFile(path, truncated, 0o644))

	err := Append(path, record(100))
	assert.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, truncated, data)
}

func TestAppendCreatesMissingDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "results.json")
	require.NoError(t, Append(path, record(10)))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file is left behind")
}

func TestLoadAcceptsZonelessTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	content := `[{"test_info": {"data_size": 10, "iterations": 5, "timestamp": "2024-11-20T12:34:56.789012"},
		"performance_stats": {"fetch_simple": {"min": 1, "max": 2, "avg": 1.5, "median": 1.5, "count": 2}}}]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 2024, loaded[0].Timestamp.Year())
	assert.Equal(t, 2, loaded[0].PerformanceStats["fetch_simple"].Count)
}
