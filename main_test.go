package main

import (
	"bytes"
	"context"
	"crudbench/config"
	"crudbench/results"
	"crudbench/worker"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	out := &bytes.Buffer{}
	root := newRootCmd()
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunMemoryEngine(t *testing.T) {
	output := filepath.Join(t.TempDir(), "memory.json")

	out, err := execute(t, "run", "--no-log", "--engine", "memory", "--output", output,
		"--sizes", "3,7", "--iterations", "2", "--pause", "0s", "--extended", "--seed", "42")
	require.NoError(t, err)

	assert.Contains(t, out, "Performance Test Summary (data size 3)")
	assert.Contains(t, out, "Performance Test Summary (data size 7)")
	assert.Contains(t, out, "target: memory")
	assert.Contains(t, out, "aborted: 0")

	records, err := results.Load(output)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 3, records[0].DataSize)
	assert.Equal(t, 7, records[1].DataSize)
	assert.Equal(t, 2, records[0].Iterations)
	assert.Equal(t, 2, records[0].PerformanceStats["insert_batch"].Count)
	assert.Equal(t, 4, records[0].PerformanceStats["fetch_simple"].Count)
	assert.Equal(t, 2, records[0].PerformanceStats["update_simple"].Count)
	assert.Equal(t, 2, records[0].PerformanceStats["top_rated"].Count)
}

func TestRunConfigFileWithTwoTargets(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "bench.yaml")
	require.NoError(t, os.WriteFile(conf, []byte(`
dataSizes: [5]
iterations: 1
pause: 0s
targets:
  - engine: sqlite3
    connection: ["`+filepath.Join(dir, "anime.db")+`"]
    output: `+filepath.Join(dir, "sqlite.json")+`
    batchSize: 2
  - engine: automerge
    connection: ["`+filepath.Join(dir, "documents.db")+`"]
    output: `+filepath.Join(dir, "automerge.json")+`
`), 0644))

	out, err := execute(t, "run", "--no-log", "--conf", conf)
	require.NoError(t, err)
	assert.Contains(t, out, "batchSize: 2")

	for _, name := range []string{"sqlite.json", "automerge.json"} {
		records, err := results.Load(filepath.Join(dir, name))
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 1, records[0].PerformanceStats["insert_batch_simple"].Count)
	}

	out, err = execute(t, "compare", filepath.Join(dir, "sqlite.json"), filepath.Join(dir, "automerge.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite avg (s)")
	assert.Contains(t, out, "automerge avg (s)")
	assert.Contains(t, out, "insert_batch_simple")
}

func TestRunFailsOnBadConfig(t *testing.T) {
	_, err := execute(t, "run", "--no-log")
	assert.Error(t, err)

	_, err = execute(t, "run", "--no-log", "--engine", "mongodb")
	assert.Error(t, err)

	_, err = execute(t, "run", "--no-log", "--conf", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRunReportsFailedTarget(t *testing.T) {
	// the parent directory of the output is a regular file, so results cannot be saved
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := execute(t, "run", "--no-log", "--engine", "memory", "--output", filepath.Join(blocker, "out.json"),
		"--sizes", "2", "--iterations", "1", "--pause", "0s")
	assert.ErrorContains(t, err, "target memory")
}

func TestCompareNeedsTwoFiles(t *testing.T) {
	_, err := execute(t, "compare", "a.json")
	assert.Error(t, err)
}

func TestBuildConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "bench.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("iterations: 4\ntargets: [{engine: memory, output: a.json}]"), 0644))

	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--conf", conf, "--output", "b.json", "--pause", "5ms"}))

	f := runFlags{conf: conf, output: "b.json", pause: 5 * time.Millisecond}
	cfg, err := buildConfig(cmd, f)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Iterations)
	assert.Equal(t, 5*time.Millisecond, cfg.Pause)
	assert.Equal(t, []int{10, 100, 1000, 10000}, cfg.DataSizes)
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "b.json", cfg.Targets[0].Output)
}

func TestPrintRunSummary(t *testing.T) {
	out := &bytes.Buffer{}
	printRunSummary(out, config.Target{Name: "pg", Output: "pg.json"},
		map[string]string{"engine": "postgres", "batchSize": "100"},
		worker.Results{CompleteCount: 7, AbortCount: 1, Aborted: map[string]int{"batch_insert_simple": 1}})

	assert.Equal(t, "target: pg\noutput: pg.json\nbatchSize: 100\nengine: postgres\n"+
		"completed: 7\naborted: 1\naborted batch_insert_simple: 1\n", out.String())
}

func TestSampleConfigIsValid(t *testing.T) {
	cfg, err := config.Load("bench.yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate(time.Now()))
	assert.Len(t, cfg.Targets, 3)
}
