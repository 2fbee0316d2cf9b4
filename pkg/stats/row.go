// Package stats collects per-instance solve statistics from solver logs.
package stats

import (
	"math"
	"strconv"
)

// Row is the statistics of one solved instance. An unfinished solve has
// only Instance set.
type Row struct {
	Instance       string
	Finished       bool
	SolvingTime    float64
	Nodes          int
	Gap            float64
	DualBound      float64
	PrimalBound    float64
	Optimal        float64
	OptimalGap     float64
	BestPrimalTime float64
	PresolveTime   float64
	BranchTime     float64
	BranchedVars   int
}

// Columns names the numeric columns in table order.
var Columns = []string{
	"time", "nodes", "gap", "dual", "primal", "opt", "ogap",
	"bPB time", "presolve", "branch time", "branched vars",
}

// Values returns the numeric columns in table order.
func (r Row) Values() []float64 {
	return []float64{
		r.SolvingTime,
		float64(r.Nodes),
		r.Gap,
		r.DualBound,
		r.PrimalBound,
		r.Optimal,
		r.OptimalGap,
		r.BestPrimalTime,
		r.PresolveTime,
		r.BranchTime,
		float64(r.BranchedVars),
	}
}

// FormatValue renders one table cell.
func FormatValue(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsNaN(v):
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
