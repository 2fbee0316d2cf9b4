package ranking

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/nodesel-dagger/pkg/features"
	"github.com/dd0wney/nodesel-dagger/pkg/trace"
)

func rec(idx, group, label int) Record {
	return Record{
		Idx:     idx,
		GroupID: group,
		Feats:   []float64{float64(idx), float64(group)},
		Label:   trace.Label{Value: label},
	}
}

func groupOf(id, size, positives int) []Record {
	out := make([]Record, size)
	for i := range out {
		label := 0
		if i < positives {
			label = 1
		}
		out[i] = rec(id*100+i, id, label)
	}
	return out
}

func TestConvert_FrontierGrowth(t *testing.T) {
	var records []Record
	records = append(records, groupOf(1, 3, 1)...)
	records = append(records, groupOf(2, 5, 1)...)
	records = append(records, groupOf(3, 2, 1)...)

	groups, stats := Convert(records)
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].GroupID)
	assert.Equal(t, 3, groups[1].GroupID)
	assert.Equal(t, FilterStats{Kept: 2, FrontierGrowth: 1}, stats)
}

func TestConvert_BoundIsLastKeptGroup(t *testing.T) {
	var records []Record
	records = append(records, groupOf(1, 4, 1)...)
	records = append(records, groupOf(2, 2, 0)...) // dropped, no positive
	records = append(records, groupOf(3, 4, 2)...)
	records = append(records, groupOf(4, 5, 1)...)

	groups, stats := Convert(records)
	require.Len(t, groups, 2)
	assert.Equal(t, []int{1, 3}, []int{groups[0].GroupID, groups[1].GroupID})
	assert.Equal(t, FilterStats{Kept: 2, NoPositive: 1, FrontierGrowth: 1}, stats)
}

func TestConvert_FirstKeptGroupUnbounded(t *testing.T) {
	var records []Record
	records = append(records, groupOf(1, 2, 0)...)
	records = append(records, groupOf(2, 9, 3)...)

	groups := ToRankingExamples(records)
	require.Len(t, groups, 1)
	assert.Equal(t, 9, groups[0].Size())
	assert.Equal(t, 3, groups[0].Positives())
}

func TestConvert_PreservesOrderAndSplitsRuns(t *testing.T) {
	records := []Record{rec(5, 1, 0), rec(3, 1, 1), rec(8, 2, 1), rec(9, 1, 1)}

	groups := ToRankingExamples(records)
	require.Len(t, groups, 3)
	assert.Equal(t, [][]float64{{5, 1}, {3, 1}}, groups[0].Features)
	assert.Equal(t, []int{0, 1}, groups[0].Labels)
	assert.Equal(t, 1, groups[2].GroupID)
}

func TestFlatten(t *testing.T) {
	groups := ToRankingExamples(append(groupOf(1, 3, 1), groupOf(2, 2, 2)...))
	ds := Flatten(groups)

	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, []int{3, 2}, ds.Groups)
	assert.Equal(t, []float64{1, 0, 0, 1, 1}, ds.Y)
	assert.Equal(t, []int{0, 3}, ds.Offsets())
}

func TestFromTrace(t *testing.T) {
	nodes := []*trace.Node{trace.NewNode(2), trace.NewNode(4)}
	tr, err := trace.Assemble("i", nodes, trace.Maximize)
	require.NoError(t, err)
	tr.Indexed[4].Label = trace.Label{Value: 1, MatchDepth: 3}

	feats := make([]float64, features.Size)
	obs := []features.Observation{
		{NodeID: 4, GroupID: 7, Feats: feats},
		{NodeID: 3, GroupID: 7, Feats: feats},
		{NodeID: 12, GroupID: 7, Feats: feats},
		{NodeID: 2, GroupID: 8, Feats: feats},
	}

	records, stats := FromTrace(tr, obs)
	require.Len(t, records, 2)
	assert.Equal(t, JoinStats{Joined: 2, OutOfRange: 1, Absent: 1}, stats)
	assert.Equal(t, 2, stats.Dropped())
	assert.Equal(t, trace.Label{Value: 1, MatchDepth: 3}, records[0].Label)
	assert.Equal(t, 8, records[1].GroupID)
}

func TestRecordJSONRoundTrip(t *testing.T) {
	in := Record{
		Idx:     17,
		GroupID: 3,
		Feats:   []float64{0.1, 1e-300, -2.5e17, 1.0 / 3.0},
		Label:   trace.Label{Value: 1, MatchDepth: 6},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"idx":17,"groupID":3,"feats":[0.1,1e-300,-2.5e+17,0.3333333333333333],"label":{"value":1,"optID":6}}`, string(data))

	var out Record
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestEvaluate(t *testing.T) {
	ds := Dataset{
		X:      make([][]float64, 5),
		Y:      []float64{1, 0, 0, 0, 1},
		Groups: []int{3, 2},
	}
	// Group 1 ranks its positive first; group 2 ranks its negative first.
	scores := []float64{0.9, 0.1, 0.5, 0.7, 0.2}

	ev, err := Evaluate(scores, ds)
	require.NoError(t, err)

	assert.Equal(t, 2, ev.Groups)
	assert.InDelta(t, 2.0/3.0, ev.PairwiseAccuracy, 1e-12)
	assert.Equal(t, 0.5, ev.Top1)
	assert.Equal(t, Confusion{TP: 1, FP: 1, TN: 2, FN: 1}, ev.Confusion)
	assert.Equal(t, 0.5, ev.Confusion.Precision())
	assert.Equal(t, 0.5, ev.Confusion.Recall())
	// Group 2 puts its only positive second: 1/log2(3).
	assert.InDelta(t, (1+1/1.584962500721156)/2, ev.NDCG, 1e-9)

	_, err = Evaluate(scores[:4], ds)
	assert.Error(t, err)
}
