package solverlog

import (
	"strings"

	"github.com/dd0wney/nodesel-dagger/pkg/trace"
)

// ParseBranchLine parses one branching constraint line such as
// "<t_x12> >= 1.0". ok is false for lines that are not branching
// constraints at all, and for constraints other than x <= 0.0 or x >= 1.0.
// A line that starts like a constraint but does not have the
// "<var> <relop> <value>" shape is an error.
func ParseBranchLine(line string) (d trace.BranchDecision, ok bool, err error) {
	if !strings.HasPrefix(line, "<") {
		return d, false, nil
	}
	parts := strings.Fields(line)
	if len(parts) != 3 || len(parts[0]) < 2 || !strings.HasSuffix(parts[0], ">") {
		return d, false, ErrBadBranch
	}

	var value int
	switch {
	case parts[1] == "<=" && parts[2] == "0.0":
		value = 0
	case parts[1] == ">=" && parts[2] == "1.0":
		value = 1
	default:
		return d, false, nil
	}

	return trace.BranchDecision{Variable: CleanVariable(parts[0]), Value: value}, true, nil
}

// CleanVariable strips the angle brackets around a variable name and every
// leading "t_" the presolver prepended to transformed variables.
func CleanVariable(name string) string {
	name = strings.TrimSuffix(strings.TrimPrefix(name, "<"), ">")
	for strings.HasPrefix(name, "t_") {
		name = name[2:]
	}
	return name
}
