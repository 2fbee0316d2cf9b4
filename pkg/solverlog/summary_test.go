package solverlog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func finishedLog() []string {
	return []string{
		"objective value:                  120",
		"[src/scip/branch.c:10] debug: final branching vars 12 time 0.50",
		"[src/scip/branch.c:10] debug: final branching vars 3 time 0.25",
		"SCIP Status        : problem is solved [optimal solution found]",
		"Solving Time (sec) : 12.50",
		"Solving Nodes      : 345",
		"Primal Bound       : +1.15000000000000e+02 (3 solutions)",
		"Dual Bound         : +1.20000000000000e+02",
		"objective value:                  118",
		"Gap                : 4.35 %",
	}
}

func TestParseSummary(t *testing.T) {
	s := ParseSummary(finishedLog())

	assert.True(t, s.Finished)
	assert.Equal(t, 345, s.Nodes)
	assert.Equal(t, 12.5, s.SolvingTime)
	assert.Equal(t, 115.0, s.PrimalBound)
	assert.Equal(t, 120.0, s.DualBound)
	assert.Equal(t, 4.35, s.Gap)
	assert.Equal(t, 118.0, s.Optimal)
	assert.Equal(t, 3.0, s.OptimalGap)
	assert.Equal(t, 15, s.BranchedVars)
	assert.InDelta(t, 0.75, s.BranchTime, 1e-9)
}

func TestParseSummary_InfiniteGap(t *testing.T) {
	lines := finishedLog()
	lines[len(lines)-1] = "Gap                : infinite"

	s := ParseSummary(lines)
	assert.True(t, math.IsInf(s.Gap, 1))
}

func TestParseSummary_NoReferenceObjective(t *testing.T) {
	s := ParseSummary([]string{"Primal Bound       : +5", "Gap                : 0.00 %"})
	assert.Equal(t, -1.0, s.Optimal)
	assert.Equal(t, -1.0, s.OptimalGap)
}

func TestParseSummary_Unfinished(t *testing.T) {
	lines := finishedLog()
	lines = append(lines, "[src/scip/nodesel_dagger.c:413] debug: final selecting node number 9")

	s := ParseSummary(lines)
	assert.False(t, s.Finished)
	assert.Zero(t, s.Nodes)
}

func TestIsFinished(t *testing.T) {
	assert.True(t, IsFinished([]string{"x", "  selection time : 1"}))
	assert.True(t, IsFinished([]string{"  Avg. Gap         :   0.00 %"}))
	assert.False(t, IsFinished(nil))
	assert.False(t, IsFinished([]string{"Gap", ""}))
}
