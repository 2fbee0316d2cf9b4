package ranking

import (
	"github.com/samber/lo"
)

// Group is the ranking block of one priority-queue snapshot.
type Group struct {
	GroupID  int
	Features [][]float64
	Labels   []int
}

// Size returns the number of examples in the group.
func (g Group) Size() int {
	return len(g.Labels)
}

// Positives returns the number of positive labels.
func (g Group) Positives() int {
	return lo.Count(g.Labels, 1)
}

// FilterStats counts snapshot groups by outcome.
type FilterStats struct {
	Kept           int
	NoPositive     int
	FrontierGrowth int
}

// ToRankingExamples groups records and drops degenerate groups.
func ToRankingExamples(records []Record) []Group {
	groups, _ := Convert(records)
	return groups
}

// Convert groups consecutive records sharing a GroupID, keeping their
// order. A group is dropped when it has no positive label, or when it is
// larger than the last group kept; the first kept group has no bound.
func Convert(records []Record) ([]Group, FilterStats) {
	var stats FilterStats
	kept := make([]Group, 0)
	bound := -1

	for _, g := range splitRuns(records) {
		if g.Positives() == 0 {
			stats.NoPositive++
			continue
		}
		if bound >= 0 && g.Size() > bound {
			stats.FrontierGrowth++
			continue
		}
		kept = append(kept, g)
		bound = g.Size()
		stats.Kept++
	}
	return kept, stats
}

func splitRuns(records []Record) []Group {
	runs := make([]Group, 0)
	for i, r := range records {
		if i == 0 || r.GroupID != records[i-1].GroupID {
			runs = append(runs, Group{GroupID: r.GroupID})
		}
		g := &runs[len(runs)-1]
		g.Features = append(g.Features, r.Feats)
		g.Labels = append(g.Labels, r.Label.Value)
	}
	return runs
}

// Dataset is a flattened sequence of groups, the layout pairwise trainers
// consume: rows of X with their labels, and the size of each group in
// order.
type Dataset struct {
	X      [][]float64
	Y      []float64
	Groups []int
}

// Flatten concatenates groups into a dataset.
func Flatten(groups []Group) Dataset {
	var ds Dataset
	ds.Append(groups...)
	return ds
}

// Append adds groups to the end of the dataset.
func (d *Dataset) Append(groups ...Group) {
	for _, g := range groups {
		d.X = append(d.X, g.Features...)
		d.Y = append(d.Y, lo.Map(g.Labels, func(l int, _ int) float64 { return float64(l) })...)
		d.Groups = append(d.Groups, g.Size())
	}
}

// Len returns the number of rows.
func (d Dataset) Len() int {
	return len(d.Y)
}

// Offsets returns the first row index of every group.
func (d Dataset) Offsets() []int {
	off := make([]int, len(d.Groups))
	for i := 1; i < len(d.Groups); i++ {
		off[i] = off[i-1] + d.Groups[i-1]
	}
	return off
}
