package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/nodesel-dagger/pkg/batchlog"
	"github.com/dd0wney/nodesel-dagger/pkg/ranking"
	"github.com/dd0wney/nodesel-dagger/pkg/trace"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cliParser()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	cmd := cliParser()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "dagger v0.3.0\n", out.String())
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dagger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scoring:\n  transport: carrier-pigeon\n"), 0o644))
	_, err := execute(t, "stats", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport")
}

func TestScoreArgs(t *testing.T) {
	_, err := execute(t, "score", "1", "2")
	assert.Error(t, err)
}

func TestMatchFunc(t *testing.T) {
	_, err := matchFunc("full")
	assert.NoError(t, err)
	_, err = matchFunc("last-write")
	assert.NoError(t, err)
	_, err = matchFunc("fuzzy")
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	logs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(logs, "setcover_2.log"), []byte("presolving:\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(logs, "setcover_1.log"), []byte("presolving:\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(logs, "notes.txt"), []byte("x\n"), 0o644))
	table := filepath.Join(t.TempDir(), "stats.txt")

	out, err := execute(t, "stats", "--logs", logs, "--output", table)
	require.NoError(t, err)
	assert.Contains(t, out, "setcover_1")
	assert.Contains(t, out, "setcover_2")
	assert.NotContains(t, out, "notes")
	assert.Contains(t, out, "gmean")

	data, err := os.ReadFile(table)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gmean")
}

func TestStatsNoLogs(t *testing.T) {
	_, err := execute(t, "stats", "--logs", t.TempDir())
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.bin")
	w, err := batchlog.Open(path)
	require.NoError(t, err)
	_, err = w.Append(&batchlog.Batch{
		Instance: "setcover_1",
		RunID:    "run",
		Records: []ranking.Record{
			{Idx: 3, GroupID: 1, Feats: []float64{0.5}, Label: trace.Label{Value: 1, MatchDepth: 2}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out, err := execute(t, "export", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"idx":3`)
	assert.Contains(t, out, `"label":{"value":1,"optID":2}`)
}
