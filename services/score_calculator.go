package services

import (
	"nfl-pool/models"
)

// Tally is one participant's raw counts for a week
type Tally struct {
	Correct         int
	Total           int
	UnderdogPicks   int
	UnderdogCorrect int
	Matched         int // countable contests the participant had a pick for
}

// ScoreCalculator scores a participant's picks against a week's countable contests
type ScoreCalculator struct {
	legacyTieBreak bool
}

// NewScoreCalculator creates a calculator using the season's tie rule
func NewScoreCalculator(settings models.PoolSettings) *ScoreCalculator {
	return &ScoreCalculator{legacyTieBreak: settings.LegacyTieBreak}
}

// Score returns the tally for one participant. Total is always the number of
// countable contests, picked or not. played is false when the participant
// made no picks at all, in which case they are left out of the recap.
func (sc *ScoreCalculator) Score(countable []models.Contest, picks *models.PickSet) (tally Tally, played bool) {
	tally.Total = len(countable)
	if picks.Len() == 0 {
		return tally, false
	}

	for i := range countable {
		contest := &countable[i]
		pick, ok := picks.Lookup(contest)
		if !ok {
			continue
		}
		tally.Matched++

		outcome := contest.Outcome(sc.legacyTieBreak)
		correct := outcome != models.OutcomeDraw && string(outcome) == string(pick.ChosenSide)
		if correct {
			tally.Correct++
		}

		// An underdog pick needs a known favorite on the other side
		if contest.FavoriteSide != models.SideNone && pick.ChosenSide != contest.FavoriteSide {
			tally.UnderdogPicks++
			if correct {
				tally.UnderdogCorrect++
			}
		}
	}
	return tally, true
}

// NormalizeContests rewrites contest ids to canonical form and drops
// contests whose id cannot be normalized
func NormalizeContests(contests []models.Contest) []models.Contest {
	normalized := make([]models.Contest, 0, len(contests))
	for _, c := range contests {
		id, ok := models.CanonicalID(c.ID)
		if !ok {
			continue
		}
		if c.RawID == "" {
			c.RawID = c.ID
		}
		c.ID = id
		normalized = append(normalized, c)
	}
	return normalized
}
