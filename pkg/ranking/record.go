// Package ranking turns labeled search traces into grouped pairwise
// ranking examples.
package ranking

import (
	"github.com/dd0wney/nodesel-dagger/pkg/features"
	"github.com/dd0wney/nodesel-dagger/pkg/trace"
)

// Record is one labeled node observation, the unit written to batch files.
type Record struct {
	Idx     int         `json:"idx"`
	GroupID int         `json:"groupID"`
	Feats   []float64   `json:"feats"`
	Label   trace.Label `json:"label"`
}

// JoinStats counts observations that could not be joined with the trace.
type JoinStats struct {
	Joined     int
	OutOfRange int
	Absent     int
}

// Dropped returns the number of observations left out.
func (s JoinStats) Dropped() int {
	return s.OutOfRange + s.Absent
}

// FromTrace labels each observation with the label of its node. The trace
// must already be labeled. Observations whose node id falls outside the
// index table or has no node in the log are dropped.
func FromTrace(tr *trace.InstanceTrace, obs []features.Observation) ([]Record, JoinStats) {
	var stats JoinStats
	records := make([]Record, 0, len(obs))
	for _, o := range obs {
		if o.NodeID < 0 || o.NodeID >= len(tr.Indexed) {
			stats.OutOfRange++
			continue
		}
		node := tr.Indexed[o.NodeID]
		if node == nil {
			stats.Absent++
			continue
		}
		records = append(records, Record{
			Idx:     o.NodeID,
			GroupID: o.GroupID,
			Feats:   o.Feats,
			Label:   node.Label,
		})
	}
	stats.Joined = len(records)
	return records, stats
}
