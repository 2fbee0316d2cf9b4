package trace

import (
	"fmt"
	"math"
	"strings"
)

// Sense is the optimization direction of the solved instance. It decides
// which primal bound counts as best.
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

// ParseSense converts "max"/"maximize"/"min"/"minimize" to a Sense.
func ParseSense(s string) (Sense, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "max", "maximize":
		return Maximize, nil
	case "min", "minimize":
		return Minimize, nil
	default:
		return Maximize, fmt.Errorf("unknown objective sense %q", s)
	}
}

func (s Sense) String() string {
	if s == Minimize {
		return "minimize"
	}
	return "maximize"
}

// Better reports whether a is a strictly better primal bound than b.
func (s Sense) Better(a, b float64) bool {
	if s == Minimize {
		return a < b
	}
	return a > b
}

func (s Sense) worst() float64 {
	if s == Minimize {
		return math.Inf(1)
	}
	return math.Inf(-1)
}

// InstanceTrace is the reconstructed search of one solved instance. It is
// built once by Assemble and only annotated afterwards.
type InstanceTrace struct {
	Name  string
	Sense Sense

	// Chronological holds nodes in selection order.
	Chronological []*Node
	// Indexed maps node id to node; absent ids are nil. len(Indexed) == MaxID+1.
	Indexed []*Node
	MaxID   int

	BestPrimalBound       float64
	Incumbents            []*Node
	PresolveDuration      float64
	TimeToBestPrimalBound float64

	// DroppedIDs lists negative and repeated node ids left out of the trace.
	DroppedIDs []int
	// SkippedRecords counts malformed log records left out of the trace.
	SkippedRecords int
}

// Assemble builds a trace from parsed nodes in selection order: it fills the
// chronological list and the index table, tracks the best primal bound and
// the improving incumbents, then derives the timing scalars.
//
// The returned trace is usable even when err is non-nil, except for
// ErrEmptyTrace which yields a trace with no nodes.
func Assemble(name string, nodes []*Node, sense Sense) (*InstanceTrace, error) {
	tr := &InstanceTrace{
		Name:                  name,
		Sense:                 sense,
		Chronological:         make([]*Node, 0, len(nodes)),
		Incumbents:            make([]*Node, 0),
		DroppedIDs:            make([]int, 0),
		BestPrimalBound:       sense.worst(),
		TimeToBestPrimalBound: -1,
	}

	seen := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		if n == nil || IsPreprocessing(n.ID) {
			continue
		}
		if n.ID < 0 || seen[n.ID] {
			tr.DroppedIDs = append(tr.DroppedIDs, n.ID)
			continue
		}
		seen[n.ID] = true
		tr.Chronological = append(tr.Chronological, n)
		if sense.Better(n.PrimalBound, tr.BestPrimalBound) {
			tr.BestPrimalBound = n.PrimalBound
		}
		if n.ID > tr.MaxID {
			tr.MaxID = n.ID
		}
	}

	tr.Indexed = make([]*Node, tr.MaxID+1)
	for _, n := range tr.Chronological {
		tr.Indexed[n.ID] = n
	}

	if _, err := TrackIncumbents(tr); err != nil {
		return tr, err
	}

	tr.PresolveDuration = presolveDuration(tr)
	tr.TimeToBestPrimalBound = timeToBestPrimalBound(tr)

	return tr, nil
}

// Lookup returns the node with the given id.
func (t *InstanceTrace) Lookup(id int) (*Node, error) {
	if id < 0 || id >= len(t.Indexed) {
		return nil, NewError("lookup").Instance(t.Name).Node(id).
			Context("table size %d", len(t.Indexed)).Cause(ErrNodeOutOfRange).Err()
	}
	n := t.Indexed[id]
	if n == nil {
		return nil, NewError("lookup").Instance(t.Name).Node(id).Cause(ErrNodeAbsent).Err()
	}
	return n, nil
}

// Contains reports whether id has a node in the index table.
func (t *InstanceTrace) Contains(id int) bool {
	return id >= 0 && id < len(t.Indexed) && t.Indexed[id] != nil
}

// Target returns the last improving incumbent node, the ground truth for the
// optimal path.
func (t *InstanceTrace) Target() (*Node, bool) {
	if len(t.Incumbents) == 0 {
		return nil, false
	}
	return t.Incumbents[len(t.Incumbents)-1], true
}

// AcceptedObjectives returns the objective accepted at each improving node.
func (t *InstanceTrace) AcceptedObjectives() []float64 {
	out := make([]float64, len(t.Incumbents))
	for i, n := range t.Incumbents {
		out[i] = n.AcceptedObjective
	}
	return out
}
