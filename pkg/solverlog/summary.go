package solverlog

import (
	"math"
	"strconv"
	"strings"
)

// Summary holds the solve statistics the solver prints after it finishes.
type Summary struct {
	Finished     bool
	Nodes        int
	SolvingTime  float64
	DualBound    float64
	PrimalBound  float64
	Gap          float64 // +Inf when the solver reports "infinite"
	Optimal      float64 // -1 when the log carries no reference objective
	OptimalGap   float64 // |Optimal - PrimalBound|, -1 without Optimal
	BranchTime   float64
	BranchedVars int
}

// IsFinished reports whether the last line of a log is one the solver only
// prints after the statistics block.
func IsFinished(lines []string) bool {
	if len(lines) == 0 {
		return false
	}
	last := lines[len(lines)-1]
	return strings.HasPrefix(last, "  selection") ||
		strings.HasPrefix(last, "  Avg. Gap") ||
		strings.HasPrefix(last, "Gap")
}

// ParseSummary extracts the solve statistics from a finished log. An
// unfinished log yields a zero Summary with Finished false. Each value is
// taken from the last line that carries it. The reference optimum is the
// second "objective value" line, or the only one.
func ParseSummary(lines []string) Summary {
	if !IsFinished(lines) {
		return Summary{}
	}

	s := Summary{Finished: true, Optimal: -1, OptimalGap: -1}
	objectives := make([]float64, 0, 2)
	for _, line := range lines {
		fields := strings.Fields(line)
		switch {
		case strings.HasPrefix(line, "Gap"):
			if tok := field(fields, 2); tok == "infinite" {
				s.Gap = math.Inf(1)
			} else if v, ok := parseFloat(tok); ok {
				s.Gap = v
			}
		case strings.Contains(line, "Solving Time"):
			if v, ok := parseFloat(field(fields, 4)); ok {
				s.SolvingTime = v
			}
		case strings.Contains(line, "Solving Nodes"):
			if v, err := strconv.Atoi(field(fields, 3)); err == nil {
				s.Nodes = v
			}
		case strings.Contains(line, "Dual Bound"):
			if v, ok := parseFloat(field(fields, 3)); ok {
				s.DualBound = v
			}
		case strings.Contains(line, "Primal Bound"):
			if v, ok := parseFloat(field(fields, 3)); ok {
				s.PrimalBound = v
			}
		case strings.Contains(line, "objective value"):
			if v, ok := parseFloat(field(fields, 2)); ok && len(objectives) < 2 {
				objectives = append(objectives, v)
			}
		case strings.Contains(line, "final branching"):
			if v, err := strconv.Atoi(field(fields, 5)); err == nil {
				s.BranchedVars += v
			}
			if v, ok := parseFloat(field(fields, 7)); ok {
				s.BranchTime += v
			}
		}
	}

	if len(objectives) > 0 {
		s.Optimal = objectives[len(objectives)-1]
		s.OptimalGap = math.Abs(s.Optimal - s.PrimalBound)
	}
	return s
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
