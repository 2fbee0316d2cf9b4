package trace

// TrackIncumbents finds every node after which a new best incumbent was
// reported. A node prev is improving when its successor cur carries a
// non-empty incumbent list, cur's primal bound equals the best primal bound
// and prev's does not; prev then accepts cur's first incumbent objective.
//
// The result is stored in t.Incumbents and returned. Re-running it resets
// earlier annotations first.
func TrackIncumbents(t *InstanceTrace) ([]*Node, error) {
	if len(t.Chronological) == 0 {
		return nil, NewError("track incumbents").Instance(t.Name).Cause(ErrEmptyTrace).Err()
	}

	for _, n := range t.Chronological {
		n.Improving = false
		n.AcceptedObjective = 0
	}

	improving := make([]*Node, 0)
	for i := 1; i < len(t.Chronological); i++ {
		prev, cur := t.Chronological[i-1], t.Chronological[i]
		if len(cur.Incumbents) == 0 {
			continue
		}
		if ApproxEqual(cur.PrimalBound, t.BestPrimalBound) && !ApproxEqual(prev.PrimalBound, t.BestPrimalBound) {
			prev.Improving = true
			prev.AcceptedObjective = cur.Incumbents[0]
			improving = append(improving, prev)
		}
	}

	t.Incumbents = improving
	return improving, nil
}
