package stats

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/nodesel-dagger/pkg/logging"
	"github.com/dd0wney/nodesel-dagger/pkg/solverlog"
)

func record(id int, primal, time, bestTime float64, objs ...float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[src/scip/nodesel_dagger.c:413] debug: final selecting node number %d primalbound %g lowerbound %g dualbound %g time %g depth %d left %d bPB_time %g opt 0 score 0.5 nsols %d",
		id, primal, primal-10, primal+20, time, 2, 3, bestTime, len(objs))
	for i, o := range objs {
		fmt.Fprintf(&b, " obj%d %g", i, o)
	}
	return b.String()
}

func searchLines() []string {
	return []string{
		"presolving:",
		record(2, 50, 0.5, 0.2),
		"<t_x1> >= 1.0",
		record(3, 50, 0.7, 0.2),
		record(4, 50, 0.9, 0.2, 50),
		record(5, 100, 1.2, 1.1, 100, 50),
	}
}

func summaryLines() []string {
	return []string{
		"objective value:                  120",
		"[src/scip/branch.c:10] debug: final branching vars 12 time 0.50",
		"Solving Time (sec) : 12.50",
		"Solving Nodes      : 345",
		"Primal Bound       : +1.00000000000000e+02 (3 solutions)",
		"Dual Bound         : +1.20000000000000e+02",
		"objective value:                  110",
		"Gap                : 20.00 %",
	}
}

func writeLog(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name+".log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func newCollector() *Collector {
	return NewCollector(solverlog.NewBuilder(solverlog.DefaultLayout()), 2, logging.NewNopLogger())
}

func TestCollectFile(t *testing.T) {
	dir := t.TempDir()
	path := writeLog(t, dir, "setcover_1", append(searchLines(), summaryLines()...))

	row, err := newCollector().CollectFile(path)
	require.NoError(t, err)

	assert.Equal(t, "setcover_1", row.Instance)
	assert.True(t, row.Finished)
	assert.Equal(t, 12.5, row.SolvingTime)
	assert.Equal(t, 345, row.Nodes)
	assert.Equal(t, 20.0, row.Gap)
	assert.Equal(t, 100.0, row.PrimalBound)
	assert.Equal(t, 110.0, row.Optimal)
	assert.Equal(t, 10.0, row.OptimalGap)
	assert.Equal(t, 12, row.BranchedVars)
	assert.Equal(t, 1.1, row.BestPrimalTime)
	assert.Equal(t, 0.5, row.PresolveTime)
}

func TestCollectFileWithoutSearch(t *testing.T) {
	path := writeLog(t, t.TempDir(), "tiny_1", summaryLines())

	row, err := newCollector().CollectFile(path)
	require.NoError(t, err)
	assert.True(t, row.Finished)
	assert.Equal(t, -1.0, row.BestPrimalTime)
	assert.Equal(t, -1.0, row.PresolveTime)
}

func TestCollectFileUnfinished(t *testing.T) {
	path := writeLog(t, t.TempDir(), "setcover_2", searchLines())

	row, err := newCollector().CollectFile(path)
	require.NoError(t, err)
	assert.Equal(t, Row{Instance: "setcover_2"}, row)
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeLog(t, dir, "a_1", append(searchLines(), summaryLines()...)),
		filepath.Join(dir, "missing.log"),
		writeLog(t, dir, "a_2", searchLines()),
	}

	rows, err := newCollector().Collect(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a_1", rows[0].Instance)
	assert.Equal(t, "a_2", rows[1].Instance)

	_, err = newCollector().Collect(context.Background(), paths[1:2])
	assert.Error(t, err)
}

func TestGeometricMeans(t *testing.T) {
	rows := []Row{
		{Instance: "a", SolvingTime: 4, Nodes: 9, Gap: math.Inf(1)},
		{Instance: "b", SolvingTime: 0.5, Nodes: 1, Gap: 4},
	}
	means := GeometricMeans(rows)
	require.Len(t, means, len(Columns))
	assert.InDelta(t, 2.0, means[0], 1e-12)
	assert.InDelta(t, 3.0, means[1], 1e-12)
	assert.InDelta(t, 4.0, means[2], 1e-12)

	empty := GeometricMeans(nil)
	assert.True(t, math.IsNaN(empty[0]))
}

func TestWriteTable(t *testing.T) {
	rows := []Row{
		{Instance: "a", SolvingTime: 4, Gap: math.Inf(1)},
		{Instance: "b", SolvingTime: 1},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "instance")
	assert.Contains(t, lines[0], "bPB time")
	assert.Contains(t, lines[1], "inf")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[3]), "gmean"))
	assert.Contains(t, lines[3], "2.00")

	cells := Cells(rows)
	require.Len(t, cells, 3)
	assert.Equal(t, "gmean", cells[2][0])
	assert.Len(t, cells[0], len(Columns)+1)
}

func TestSQL(t *testing.T) {
	table := pgx.Identifier{"solve_stats"}.Sanitize()
	assert.Contains(t, createTableSQL(table), `CREATE TABLE IF NOT EXISTS "solve_stats"`)
	assert.Contains(t, insertSQL(table), `INSERT INTO "solve_stats"`)
	assert.Contains(t, insertSQL(table), "$14")

	assert.Nil(t, nullable(math.Inf(1)))
	assert.Equal(t, 2.5, *nullable(2.5))
}

func TestPGStore(t *testing.T) {
	url := os.Getenv("DAGGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("DAGGER_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := NewPGStore(ctx, url, "solve_stats_test")
	require.NoError(t, err)
	defer s.Close()

	rows := []Row{{Instance: "a", Finished: true, SolvingTime: 1, Gap: math.Inf(1)}}
	require.NoError(t, s.Insert(ctx, "run-test", rows))
	require.NoError(t, s.Insert(ctx, "run-test", rows))
}
