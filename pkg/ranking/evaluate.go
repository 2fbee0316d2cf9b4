package ranking

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Confusion counts the top-ranked pick of each group as a positive
// prediction and every other row as a negative one.
type Confusion struct {
	TP, FP, TN, FN int
}

// Precision returns TP/(TP+FP), or 0 without positive predictions.
func (c Confusion) Precision() float64 {
	if c.TP+c.FP == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FP)
}

// Recall returns TP/(TP+FN), or 0 without positive labels.
func (c Confusion) Recall() float64 {
	if c.TP+c.FN == 0 {
		return 0
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

// Evaluation summarizes how well scores order the rows of each group.
type Evaluation struct {
	Groups int
	// PairwiseAccuracy is the share of (positive, negative) pairs within a
	// group where the positive scores higher; ties count half.
	PairwiseAccuracy float64
	// Top1 is the share of groups whose best-scored row is positive.
	Top1      float64
	NDCG      float64
	Confusion Confusion
}

// Metrics returns the evaluation as named values.
func (e Evaluation) Metrics() map[string]float64 {
	return map[string]float64{
		"pairwise_accuracy": e.PairwiseAccuracy,
		"top1":              e.Top1,
		"ndcg":              e.NDCG,
		"precision":         e.Confusion.Precision(),
		"recall":            e.Confusion.Recall(),
	}
}

// Evaluate scores a dataset. scores must be parallel to ds.Y.
func Evaluate(scores []float64, ds Dataset) (Evaluation, error) {
	if len(scores) != ds.Len() {
		return Evaluation{}, fmt.Errorf("evaluate: %d scores for %d rows", len(scores), ds.Len())
	}

	var (
		ev       = Evaluation{Groups: len(ds.Groups)}
		pairsOK  float64
		pairsAll float64
		top1     = make([]float64, 0, len(ds.Groups))
		ndcg     = make([]float64, 0, len(ds.Groups))
	)

	for gi, off := range ds.Offsets() {
		size := ds.Groups[gi]
		if size == 0 {
			continue
		}
		s := scores[off : off+size]
		y := ds.Y[off : off+size]

		for i := range y {
			if y[i] <= 0 {
				continue
			}
			for j := range y {
				if y[j] > 0 {
					continue
				}
				pairsAll++
				switch {
				case s[i] > s[j]:
					pairsOK++
				case s[i] == s[j]:
					pairsOK += 0.5
				}
			}
		}

		best := floats.MaxIdx(s)
		if y[best] > 0 {
			top1 = append(top1, 1)
		} else {
			top1 = append(top1, 0)
		}
		for i := range y {
			switch {
			case i == best && y[i] > 0:
				ev.Confusion.TP++
			case i == best:
				ev.Confusion.FP++
			case y[i] > 0:
				ev.Confusion.FN++
			default:
				ev.Confusion.TN++
			}
		}

		ndcg = append(ndcg, groupNDCG(s, y))
	}

	if pairsAll > 0 {
		ev.PairwiseAccuracy = pairsOK / pairsAll
	}
	if len(top1) > 0 {
		ev.Top1 = stat.Mean(top1, nil)
		ev.NDCG = stat.Mean(ndcg, nil)
	}
	return ev, nil
}

func groupNDCG(scores, labels []float64) float64 {
	ideal := dcg(labels, labels)
	if ideal == 0 {
		return 0
	}
	return dcg(scores, labels) / ideal
}

// dcg sums the gains of labels in descending order of keys.
func dcg(keys, labels []float64) float64 {
	order := make([]int, len(keys))
	sorted := make([]float64, len(keys))
	copy(sorted, keys)
	floats.Argsort(sorted, order)

	var sum float64
	for rank := 0; rank < len(order); rank++ {
		rel := labels[order[len(order)-1-rank]]
		sum += (math.Exp2(rel) - 1) / math.Log2(float64(rank)+2)
	}
	return sum
}
