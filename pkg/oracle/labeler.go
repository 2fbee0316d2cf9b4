// Package oracle decides which search nodes lie on the path from the root
// to the best incumbent found by the solver.
package oracle

import (
	"github.com/dd0wney/nodesel-dagger/pkg/trace"
)

// MatchFunc compares a node's branch history with the target's. Both are
// root-first.
type MatchFunc func(node, target []trace.BranchDecision) bool

// Labeler computes optimal-path labels.
type Labeler struct {
	match MatchFunc
}

// Option configures a Labeler.
type Option func(*Labeler)

// WithMatch replaces the history comparison.
func WithMatch(m MatchFunc) Option {
	return func(l *Labeler) { l.match = m }
}

// NewLabeler returns a labeler using full root-aligned history matching.
func NewLabeler(opts ...Option) *Labeler {
	l := &Labeler{match: FullMatch}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LabelNode labels the node with the given id. It does not modify the trace.
//
// A node is on the optimal path when the trace has a reliable target (its
// accepted objective is within tolerance of the best primal bound), the
// node's history is no longer than the target's, and every decision of the
// node agrees with the target's decision at the same depth. A root node
// always matches, with MatchDepth 0. Any other match reports the target's
// history length as MatchDepth.
func (l *Labeler) LabelNode(tr *trace.InstanceTrace, id int) (trace.Label, error) {
	node, err := tr.Lookup(id)
	if err != nil {
		return trace.Label{}, err
	}
	return l.label(tr, node), nil
}

func (l *Labeler) label(tr *trace.InstanceTrace, node *trace.Node) trace.Label {
	target, ok := tr.Target()
	if !ok || !trace.ApproxEqual(target.AcceptedObjective, tr.BestPrimalBound) {
		return trace.Label{}
	}

	m, n := len(node.Branches), len(target.Branches)
	switch {
	case m > n:
		return trace.Label{}
	case m == 0:
		return trace.Label{Value: 1}
	}

	if !l.match(node.Branches, target.Branches) {
		return trace.Label{}
	}
	return trace.Label{Value: 1, MatchDepth: n}
}

// LabelAll labels every node of the trace in place and returns the number
// of positive labels. Labels depend only on the trace, so repeated calls
// give the same result.
func (l *Labeler) LabelAll(tr *trace.InstanceTrace) int {
	positives := 0
	for _, node := range tr.Chronological {
		node.Label = l.label(tr, node)
		node.Labelled = true
		positives += node.Label.Value
	}
	return positives
}

// FullMatch reports whether every decision of node equals the target's
// decision at the same depth. On newest-first histories, as the log prints
// them, this is the suffix comparison node[m-1-i] == target[n-1-i].
func FullMatch(node, target []trace.BranchDecision) bool {
	if len(node) > len(target) {
		return false
	}
	for i := range node {
		if !node[i].Equal(target[i]) {
			return false
		}
	}
	return true
}

// LastWriteWins reproduces a comparison loop that overwrote its result at
// every position: only the deepest compared position decides. Kept to
// check labels against data produced by that loop.
func LastWriteWins(node, target []trace.BranchDecision) bool {
	if len(node) > len(target) {
		return false
	}
	match := false
	for i := range node {
		match = node[i].Equal(target[i])
	}
	return match
}
