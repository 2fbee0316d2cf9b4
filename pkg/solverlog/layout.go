package solverlog

import (
	"fmt"
	"sort"

	"github.com/dd0wney/nodesel-dagger/pkg/validation"
)

// BranchOrder is the order in which the solver prints a node's branching
// constraints ahead of its selection record.
type BranchOrder string

const (
	// RootFirst: the decision closest to the root is printed first.
	RootFirst BranchOrder = "root-first"
	// LeafFirst: the newest decision is printed first.
	LeafFirst BranchOrder = "leaf-first"
)

// FieldIndex maps node attributes to whitespace token offsets within a
// selection record, counted after the thread prefix is removed. A negative
// offset marks a field the solver version does not print.
type FieldIndex struct {
	ID                int `yaml:"id" validate:"gte=0"`
	PrimalBound       int `yaml:"primal_bound"`
	LowerBound        int `yaml:"lower_bound"`
	UpperBound        int `yaml:"upper_bound"`
	DualBound         int `yaml:"dual_bound"`
	Time              int `yaml:"time"`
	Depth             int `yaml:"depth"`
	Remaining         int `yaml:"remaining"`
	BestIncumbentTime int `yaml:"best_incumbent_time"`
	IncumbentsFrom    int `yaml:"incumbents_from" validate:"gte=1"`
}

// Layout describes how one solver build writes its node-selection records.
type Layout struct {
	Name           string      `yaml:"name" validate:"required"`
	Marker         string      `yaml:"marker" validate:"required"`
	BoundaryPrefix string      `yaml:"boundary_prefix" validate:"required"`
	ThreadPrefix   string      `yaml:"thread_prefix"`
	BranchOrder    BranchOrder `yaml:"branch_order" validate:"oneof=root-first leaf-first"`
	Fields         FieldIndex  `yaml:"fields"`

	// TimingMinTokens: time, depth, remaining and best-incumbent time are
	// read only when a record has more tokens than this.
	TimingMinTokens int `yaml:"timing_min_tokens" validate:"gte=0"`
	// IncumbentsMinTokens: the incumbent list is read only when a record
	// has more tokens than this.
	IncumbentsMinTokens int    `yaml:"incumbents_min_tokens" validate:"gte=0"`
	IncumbentTag        string `yaml:"incumbent_tag" validate:"required"`
}

// DefaultLayoutName names the layout of the instrumented SCIP build.
const DefaultLayoutName = "scip-dagger"

// DefaultLayout returns the layout of records written by the instrumented
// node selector:
//
//	[src/scip/nodesel_dagger.c:413] debug: final selecting node number 7 primalbound 12 lowerbound 3 dualbound 15 time 0.52 depth 3 left 4 bPB_time 0.4 opt 0 score 0.1 nsols 2 obj0 12 obj1 9 total_time 0.6
func DefaultLayout() Layout {
	return Layout{
		Name:           DefaultLayoutName,
		Marker:         "final selecting",
		BoundaryPrefix: "[src/scip/nodesel",
		ThreadPrefix:   "1:",
		BranchOrder:    LeafFirst,
		Fields: FieldIndex{
			ID:                6,
			PrimalBound:       8,
			LowerBound:        10,
			UpperBound:        -1,
			DualBound:         12,
			Time:              14,
			Depth:             16,
			Remaining:         18,
			BestIncumbentTime: 20,
			IncumbentsFrom:    25,
		},
		TimingMinTokens:     13,
		IncumbentsMinTokens: 20,
		IncumbentTag:        "obj",
	}
}

// Validate checks the layout for missing or inconsistent settings.
func (l Layout) Validate() error {
	if err := validation.Struct(&l); err != nil {
		return fmt.Errorf("layout %q: %w", l.Name, err)
	}
	f := l.Fields
	return validation.NewConfigValidator("layout." + l.Name).
		NonNegative("fields.primal_bound", f.PrimalBound).
		NonNegative("fields.lower_bound", f.LowerBound).
		NonNegative("fields.dual_bound", f.DualBound).
		Custom("fields", func() error {
			// Core fields are always read, so the record must reach them.
			core := []int{f.ID, f.PrimalBound, f.LowerBound, f.DualBound}
			if f.UpperBound >= 0 {
				core = append(core, f.UpperBound)
			}
			sort.Ints(core)
			for i := 1; i < len(core); i++ {
				if core[i] == core[i-1] {
					return fmt.Errorf("token offset %d used twice", core[i])
				}
			}
			return nil
		}).
		Validate()
}

// Layouts is a set of named layouts.
type Layouts map[string]Layout

// DefaultLayouts returns the built-in layouts.
func DefaultLayouts() Layouts {
	l := DefaultLayout()
	return Layouts{l.Name: l}
}

// Get returns the layout registered under name.
func (ls Layouts) Get(name string) (Layout, error) {
	l, ok := ls[name]
	if !ok {
		return Layout{}, fmt.Errorf("unknown log layout %q", name)
	}
	if l.Name == "" {
		l.Name = name
	}
	return l, nil
}
