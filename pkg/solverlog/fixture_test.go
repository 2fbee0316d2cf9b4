package solverlog

import (
	"fmt"
	"strings"
)

// record renders a selection record in the default layout.
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

// scenarioLog is a small solve: node 4 (history x1=1, x2=0) finds the
// incumbent 100 reported with node 5. Branching lines are printed newest
// first.
func scenarioLog() []string {
	return []string{
		"presolving:",
		"1: " + record(1, 0, 0.1, 0),
		"<t_x1> >= 1.0",
		record(2, 50, 0.5, 0.2),
		"<t_x2> <= 0.0",
		"<t_t_x1> >= 1.0",
		"1: " + record(3, 50, 0.7, 0.2),
		"<x5> <= 1.0",
		"<t_x2> <= 0.0",
		"<t_x1> >= 1.0",
		record(4, 50, 0.9, 0.2, 50),
		"<t_x3> >= 1.0",
		record(5, 100, 1.2, 1.1, 100, 50),
	}
}
