package gbrank

import (
	"gonum.org/v1/gonum/floats"
)

// treeNode is one node of a regression tree. Leaves have Feature < 0.
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// Tree is a binary regression tree stored as a flat node slice rooted at 0.
type Tree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		v := 0.0
		if n.Feature < len(x) {
			v = x[n.Feature]
		}
		if v < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// grower fits one tree to second-order gradient statistics.
type grower struct {
	x        [][]float64
	grad     []float64
	hess     []float64
	features []int
	params   Params
	tree     *Tree
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

func (g *grower) grow(rows []int) *Tree {
	g.tree = &Tree{}
	g.build(rows, 0)
	return g.tree
}

func (g *grower) build(rows []int, depth int) int {
	idx := len(g.tree.Nodes)
	g.tree.Nodes = append(g.tree.Nodes, treeNode{Feature: -1})

	G, H := g.sums(rows)
	if depth < g.params.MaxDepth && len(rows) > 1 {
		if s, ok := g.bestSplit(rows, G, H); ok {
			left := g.build(s.left, depth+1)
			right := g.build(s.right, depth+1)
			g.tree.Nodes[idx] = treeNode{
				Feature:   s.feature,
				Threshold: s.threshold,
				Left:      left,
				Right:     right,
			}
			return idx
		}
	}

	g.tree.Nodes[idx].Value = -g.params.LearningRate * G / (H + g.params.Lambda)
	return idx
}

func (g *grower) sums(rows []int) (float64, float64) {
	var G, H float64
	for _, r := range rows {
		G += g.grad[r]
		H += g.hess[r]
	}
	return G, H
}

func (g *grower) score(G, H float64) float64 {
	return G * G / (H + g.params.Lambda)
}

// bestSplit scans every sampled feature in sorted order and returns the
// split with the largest positive gain.
func (g *grower) bestSplit(rows []int, G, H float64) (split, bool) {
	best := split{gain: 0}
	found := false
	parent := g.score(G, H)

	vals := make([]float64, len(rows))
	order := make([]int, len(rows))
	for _, f := range g.features {
		for i, r := range rows {
			vals[i] = featureAt(g.x[r], f)
		}
		floats.Argsort(vals, order)

		var GL, HL float64
		for i := 0; i < len(rows)-1; i++ {
			r := rows[order[i]]
			GL += g.grad[r]
			HL += g.hess[r]
			if vals[i] == vals[i+1] {
				continue
			}
			GR, HR := G-GL, H-HL
			if HL < g.params.MinChildWeight || HR < g.params.MinChildWeight {
				continue
			}
			gain := g.score(GL, HL) + g.score(GR, HR) - parent
			if gain > best.gain {
				best = split{
					feature:   f,
					threshold: (vals[i] + vals[i+1]) / 2,
					gain:      gain,
				}
				found = true
			}
		}
	}
	if !found {
		return best, false
	}

	for _, r := range rows {
		if featureAt(g.x[r], best.feature) < best.threshold {
			best.left = append(best.left, r)
		} else {
			best.right = append(best.right, r)
		}
	}
	return best, true
}

func featureAt(x []float64, f int) float64 {
	if f < len(x) {
		return x[f]
	}
	return 0
}
