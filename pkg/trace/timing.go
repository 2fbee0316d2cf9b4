package trace

import "math"

// presolveDuration approximates the end of presolving by the selection time
// of the root's children, node ids 2 and 3. Small trees, whose index table
// has at most four slots, use the highest-numbered node instead.
func presolveDuration(t *InstanceTrace) float64 {
	if len(t.Indexed) == 0 {
		return 0
	}
	fallback := 0.0
	if last := t.Indexed[t.MaxID]; last != nil {
		fallback = last.Time
	}
	if len(t.Indexed) <= 4 {
		return fallback
	}

	best := math.Inf(1)
	for _, id := range []int{2, 3} {
		if n := t.Indexed[id]; n != nil && n.Time < best {
			best = n.Time
		}
	}
	if math.IsInf(best, 1) {
		return fallback
	}
	return best
}

// timeToBestPrimalBound uses the solver-reported time of the best incumbent
// when the final node already carries the best bound, and the final node's
// selection time otherwise.
func timeToBestPrimalBound(t *InstanceTrace) float64 {
	if len(t.Chronological) == 0 {
		return -1
	}
	last := t.Chronological[len(t.Chronological)-1]
	if ApproxEqual(last.PrimalBound, t.BestPrimalBound) {
		return last.BestIncumbentTime
	}
	return last.Time
}
