package trace

import (
	"fmt"
	"math"
)

// AbsentID marks a parse result that is not a search node. It is never
// stored in a trace; absent index slots are nil.
const AbsentID = -2

// Tolerance is the absolute difference under which two objective values are
// treated as equal. The solver reports bounds with float jitter, so the
// comparison is deliberately coarse.
const Tolerance = 1.0

// ApproxEqual reports whether |x-y| < Tolerance.
func ApproxEqual(x, y float64) bool {
	return math.Abs(x-y) < Tolerance
}

// BranchDecision is one binary variable fixing on the path from the root.
type BranchDecision struct {
	Variable string `json:"name"`
	Value    int    `json:"value"`
}

// Equal reports whether both decisions fix the same variable to the same value.
func (b BranchDecision) Equal(o BranchDecision) bool {
	return b.Variable == o.Variable && b.Value == o.Value
}

func (b BranchDecision) String() string {
	return fmt.Sprintf("%s=%d", b.Variable, b.Value)
}

// Label is the optimal-path label of a node. MatchDepth is the branch history
// length of the best-incumbent node when the node matched, 0 otherwise.
type Label struct {
	Value      int `json:"value"`
	MatchDepth int `json:"optID"`
}

// Node is one search-tree node as reconstructed from a solver log.
type Node struct {
	ID         int
	LowerBound float64
	UpperBound float64
	// PrimalBound and DualBound are the global bounds at selection time.
	PrimalBound float64
	DualBound   float64
	Depth       int
	Time        float64
	Remaining   int
	// Branches is ordered root-first.
	Branches          []BranchDecision
	Incumbents        []float64
	BestIncumbentTime float64

	// Set by TrackIncumbents.
	Improving         bool
	AcceptedObjective float64

	// Set by the labeler.
	Label    Label
	Labelled bool
}

// NewNode returns a node with fresh, empty containers.
func NewNode(id int) *Node {
	return &Node{
		ID:         id,
		Branches:   make([]BranchDecision, 0),
		Incumbents: make([]float64, 0),
	}
}

// IsPreprocessing reports whether id belongs to a record emitted before the
// search proper starts.
func IsPreprocessing(id int) bool {
	return id == -1 || id == 1
}

// HistoryLen returns the number of branching decisions leading to the node.
func (n *Node) HistoryLen() int {
	return len(n.Branches)
}
