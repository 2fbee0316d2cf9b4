package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/nodesel-dagger/pkg/logging"
	"github.com/dd0wney/nodesel-dagger/pkg/policy"
	"github.com/dd0wney/nodesel-dagger/pkg/solverlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dagger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 200, cfg.Training.EvalInstances)
	assert.Equal(t, 200, cfg.Training.BatchInstances)
	assert.Equal(t, 50, cfg.Training.Model.Trees)
	assert.Equal(t, "nng", cfg.Scoring.Transport)

	l, err := cfg.Layout(solverlog.DefaultLayoutName)
	require.NoError(t, err)
	assert.Equal(t, 6, l.Fields.ID)
}

func TestLoadEmptyPath(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := writeConfig(t, `
log:
  level: debug
layouts:
  scip-7:
    marker: "final selecting"
    boundary_prefix: "[src/scip/nodesel"
    thread_prefix: "1:"
    branch_order: root-first
    fields:
      id: 5
      primal_bound: 7
      lower_bound: 9
      upper_bound: -1
      dual_bound: 11
      time: 13
      depth: 15
      remaining: 17
      best_incumbent_time: 19
      incumbents_from: 24
    timing_min_tokens: 12
    incumbents_min_tokens: 19
    incumbent_tag: obj
pipeline:
  first_k: 10
  layout: scip-7
  sense: min
training:
  batch_examples: 5000
  flush_partial: true
  model:
    trees: 20
    max_depth: 4
    learning_rate: 0.2
    subsample: 0.5
    colsample: 1
    lambda: 2
    seed: 7
scoring:
  transport: zmq
  timeout: 250ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Pipeline.FirstK)
	assert.Equal(t, "min", cfg.Pipeline.Sense)
	assert.True(t, cfg.Training.FlushPartial)
	assert.Equal(t, 5000, cfg.Training.BatchExamples)
	assert.Equal(t, 200, cfg.Training.EvalInstances)
	assert.Equal(t, 20, cfg.Training.Model.Trees)
	assert.Equal(t, int64(7), cfg.Training.Model.Seed)
	assert.Equal(t, "zmq", cfg.Scoring.Transport)
	assert.Equal(t, 250*time.Millisecond, cfg.Scoring.Timeout)

	l, err := cfg.Layout("scip-7")
	require.NoError(t, err)
	assert.Equal(t, "scip-7", l.Name)
	assert.Equal(t, solverlog.RootFirst, l.BranchOrder)
	assert.Equal(t, 5, l.Fields.ID)

	_, err = cfg.Layout(solverlog.DefaultLayoutName)
	assert.NoError(t, err)
}

func TestLoadEnvLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, logging.WarnLevel, cfg.Logger().GetLevel())
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := writeConfig(t, `
pipeline:
  layout: nope
  sense: sideways
training:
  batch_instances: 0
  store:
    kind: s3
scoring:
  transport: carrier-pigeon
`)
	_, err := Load(path)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "pipeline.layout")
	assert.Contains(t, msg, "pipeline.sense")
	assert.Contains(t, msg, "training.batch_instances")
	assert.Contains(t, msg, "training.store.bucket")
	assert.Contains(t, msg, "scoring.transport")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStoreOpenDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "policies")
	s, err := StoreConfig{Kind: "dir", Dir: dir}.Open(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &policy.DirStore{}, s)
	assert.DirExists(t, dir)
}
