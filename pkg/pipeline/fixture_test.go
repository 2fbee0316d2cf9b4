package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dd0wney/nodesel-dagger/pkg/batchlog"
	"github.com/dd0wney/nodesel-dagger/pkg/features"
)

func record(id int, primal, time, bestTime float64, objs ...float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[src/scip/nodesel_dagger.c:413] debug: final selecting node number %d primalbound %g lowerbound %g dualbound %g time %g depth %d left %d bPB_time %g opt 0 score 0.5 nsols %d",
		id, primal, primal-10, primal+20, time, 2, 3, bestTime, len(objs))
	for i, o := range objs {
		fmt.Fprintf(&b, " obj%d %g", i, o)
	}
	b.WriteString(" total_time 1.0")
	return b.String()
}

// solvedLog: node 4 (x1=1, x2=0) is improving, accepting objective 100.
func solvedLog() []string {
	return []string{
		"presolving:",
		"1: " + record(1, 0, 0.1, 0),
		"<t_x1> >= 1.0",
		record(2, 50, 0.5, 0.2),
		"<t_x2> <= 0.0",
		"<t_x1> >= 1.0",
		"1: " + record(3, 50, 0.7, 0.2),
		"<t_x2> <= 0.0",
		"<t_x1> >= 1.0",
		record(4, 50, 0.9, 0.2, 50),
		"<t_x3> >= 1.0",
		record(5, 100, 1.2, 1.1, 100, 50),
	}
}

func block(id, group int) string {
	parts := []string{fmt.Sprintf("1:%d", id), fmt.Sprintf("2:%d", group)}
	for i := 0; i < features.Size; i++ {
		parts = append(parts, fmt.Sprintf("%d:%g", i+3, float64(id)+float64(i)/10))
	}
	return strings.Join(parts, " ")
}

func snapshot(group int, ids ...int) string {
	blocks := make([]string, len(ids))
	for i, id := range ids {
		blocks[i] = block(id, group)
	}
	return strings.Join(blocks, " ")
}

// workspace lays out instance, log and trajectory directories.
type workspace struct {
	t    *testing.T
	dirs Dirs
}

func newWorkspace(t *testing.T) *workspace {
	root := t.TempDir()
	w := &workspace{t: t, dirs: Dirs{
		Instances:    filepath.Join(root, "instances"),
		Trajectories: filepath.Join(root, "trj"),
		Logs:         filepath.Join(root, "logs"),
	}}
	for _, d := range []string{w.dirs.Instances, w.dirs.Trajectories, w.dirs.Logs} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	return w
}

func (w *workspace) instance(base string, logLines []string, trajLines []string) {
	w.t.Helper()
	require.NoError(w.t, os.WriteFile(filepath.Join(w.dirs.Instances, base+".lp"), []byte("max: x;\n"), 0o644))
	if logLines != nil {
		require.NoError(w.t, os.WriteFile(w.dirs.LogPath(base), []byte(strings.Join(logLines, "\n")+"\n"), 0o644))
	}
	if trajLines != nil {
		require.NoError(w.t, os.WriteFile(w.dirs.TrajectoryPath(base), []byte(strings.Join(trajLines, "\n")+"\n"), 0o644))
	}
}

type memWriter struct {
	batches []*batchlog.Batch
	err     error
	// once fails the next append only.
	once error
}

func (m *memWriter) Append(b *batchlog.Batch) (uint64, error) {
	if m.err != nil {
		return 0, m.err
	}
	if err := m.once; err != nil {
		m.once = nil
		return 0, err
	}
	m.batches = append(m.batches, b)
	return uint64(len(m.batches)), nil
}
