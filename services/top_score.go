package services

// ResolveTopScore returns the highest correct count among players and the
// set of participants holding it. Every tied participant is a top scorer.
// A maximum of zero has no winners, so a week nobody scored in is won by nobody.
func ResolveTopScore(tallies map[string]Tally) (int, map[string]bool) {
	top := 0
	for _, t := range tallies {
		if t.Correct > top {
			top = t.Correct
		}
	}

	winners := make(map[string]bool)
	if top == 0 {
		return 0, winners
	}
	for id, t := range tallies {
		if t.Correct == top {
			winners[id] = true
		}
	}
	return top, winners
}
