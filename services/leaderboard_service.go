package services

import (
	"context"
	"fmt"
	"sort"

	"nfl-pool/logging"
	"nfl-pool/models"
)

// LeaderboardService folds stored week recaps into season standings
type LeaderboardService struct {
	recaps       RecapStore
	participants ParticipantDirectory
	metrics      *Metrics
	logger       *logging.Logger
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(recaps RecapStore, participants ParticipantDirectory, metrics *Metrics) *LeaderboardService {
	return &LeaderboardService{
		recaps:       recaps,
		participants: participants,
		metrics:      metrics,
		logger:       logging.WithPrefix("Leaderboard"),
	}
}

// GetLeaderboard builds the standings for the active week's season. The
// active week itself is left out because its recap may still change.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, active *ActiveWeek) (*models.Leaderboard, error) {
	recaps, err := s.recaps.ListRecapsBySeason(ctx, active.Season)
	if err != nil {
		s.metrics.leaderboardFailed()
		return nil, fmt.Errorf("failed to list recaps for season %d: %w", active.Season, err)
	}

	standings, included := FoldStandings(recaps, active.WeekID)
	mismatches := VerifyStandings(recaps, active.WeekID, standings)
	if len(mismatches) > 0 {
		s.logger.Warnf("Season %d standings failed verification (%d mismatches): %v",
			active.Season, len(mismatches), mismatches)
		s.metrics.verificationMismatch(len(mismatches))
	}

	s.decorateNames(ctx, standings)

	return &models.Leaderboard{
		Season:          active.Season,
		ActiveWeekID:    active.WeekID,
		IncludedWeekIDs: included,
		Standings:       standings,
		Verified:        len(mismatches) == 0,
		Mismatches:      mismatches,
	}, nil
}

func (s *LeaderboardService) decorateNames(ctx context.Context, standings []models.SeasonStanding) {
	participants, err := s.participants.ListParticipants(ctx)
	if err != nil {
		s.logger.Warnf("Standings without names, participant lookup failed: %v", err)
		return
	}
	names := make(map[string]string, len(participants))
	for i := range participants {
		names[participants[i].ID] = participants[i].DisplayName()
	}
	for i := range standings {
		standings[i].Name = names[standings[i].ParticipantID]
	}
}

// includedRecap reports whether a recap counts toward the standings
func includedRecap(r *models.WeekRecap, activeWeekID string) bool {
	if r == nil || r.WeekID == activeWeekID {
		return false
	}
	key := r.WeekKey
	if key == "" {
		if _, k, err := models.ParseWeekID(r.WeekID); err == nil {
			key = k
		}
	}
	return models.IsScorableKey(key)
}

func sortedWeekIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		_, ki, _ := models.ParseWeekID(ids[i])
		_, kj, _ := models.ParseWeekID(ids[j])
		return models.WeekOrder(ki) < models.WeekOrder(kj)
	})
}

// FoldStandings sums the per-week entries of every included recap into
// season standings, ranked densely by total correct picks
func FoldStandings(recaps []*models.WeekRecap, activeWeekID string) ([]models.SeasonStanding, []string) {
	totals := make(map[string]*models.SeasonStanding)
	var included []string

	for _, r := range recaps {
		if !includedRecap(r, activeWeekID) {
			continue
		}
		included = append(included, r.WeekID)
		for _, entry := range r.PerParticipant {
			st, ok := totals[entry.ParticipantID]
			if !ok {
				st = &models.SeasonStanding{ParticipantID: entry.ParticipantID}
				totals[entry.ParticipantID] = st
			}
			st.TotalCorrect += entry.Correct
			st.TotalContests += entry.Total
			st.WeeksPlayed++
			if entry.IsTopScore {
				st.WeeksWon++
			}
		}
	}
	sortedWeekIDs(included)

	standings := make([]models.SeasonStanding, 0, len(totals))
	for _, st := range totals {
		if st.WeeksPlayed == 0 {
			continue
		}
		if st.TotalContests > 0 {
			st.OverallPercentage = models.Percent(st.TotalCorrect, st.TotalContests)
		}
		st.Incomplete = st.WeeksPlayed < len(included)
		standings = append(standings, *st)
	}

	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.TotalCorrect != b.TotalCorrect {
			return a.TotalCorrect > b.TotalCorrect
		}
		if a.WeeksWon != b.WeeksWon {
			return a.WeeksWon > b.WeeksWon
		}
		return a.ParticipantID < b.ParticipantID
	})

	rank := 0
	for i := range standings {
		if i == 0 || standings[i].TotalCorrect != standings[i-1].TotalCorrect {
			rank++
		}
		standings[i].Rank = rank
	}
	return standings, included
}

// VerifyStandings recomputes every standing participant by participant,
// walking the recaps again rather than reusing the primary fold, and
// returns a description of each disagreement
func VerifyStandings(recaps []*models.WeekRecap, activeWeekID string, standings []models.SeasonStanding) []string {
	var weeks []*models.WeekRecap
	participants := make(map[string]bool)
	for _, r := range recaps {
		if !includedRecap(r, activeWeekID) {
			continue
		}
		weeks = append(weeks, r)
		for _, entry := range r.PerParticipant {
			participants[entry.ParticipantID] = true
		}
	}

	var mismatches []string
	if len(participants) != len(standings) {
		mismatches = append(mismatches, fmt.Sprintf("standings list %d participants, recaps hold %d", len(standings), len(participants)))
	}

	distinct := make(map[int]bool)
	for _, st := range standings {
		distinct[st.TotalCorrect] = true
	}

	for _, st := range standings {
		var correct, contests, won, played int
		for _, r := range weeks {
			entry, ok := r.Participant(st.ParticipantID)
			if !ok {
				continue
			}
			correct += entry.Correct
			contests += entry.Total
			played++
			if entry.IsTopScore {
				won++
			}
		}

		check := func(field string, got, want int) {
			if got != want {
				mismatches = append(mismatches, fmt.Sprintf("%s: %s %d, expected %d", st.ParticipantID, field, got, want))
			}
		}
		check("totalCorrect", st.TotalCorrect, correct)
		check("totalContests", st.TotalContests, contests)
		check("weeksWon", st.WeeksWon, won)
		check("weeksPlayed", st.WeeksPlayed, played)
		check("overallPercentage", st.OverallPercentage, models.Percent(correct, contests))

		higher := 0
		for total := range distinct {
			if total > st.TotalCorrect {
				higher++
			}
		}
		check("rank", st.Rank, higher+1)

		if st.Incomplete != (played < len(weeks)) {
			mismatches = append(mismatches, fmt.Sprintf("%s: incomplete %t, played %d of %d weeks", st.ParticipantID, st.Incomplete, played, len(weeks)))
		}
	}
	return mismatches
}
