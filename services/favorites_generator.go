package services

import (
	"context"
	"fmt"
	"time"

	"nfl-pool/logging"
	"nfl-pool/models"
)

// FavoritesGenerator writes picks for the synthetic participant, who always
// takes the favorite. It is the only component that writes picks.
type FavoritesGenerator struct {
	gateway GameResultsGateway
	picks   PickStore
	writer  PickWriter
	logger  *logging.Logger
	now     func() time.Time
}

// NewFavoritesGenerator creates a new favorites generator
func NewFavoritesGenerator(gateway GameResultsGateway, picks PickStore, writer PickWriter) *FavoritesGenerator {
	return &FavoritesGenerator{
		gateway: gateway,
		picks:   picks,
		writer:  writer,
		logger:  logging.WithPrefix("Favorites"),
		now:     time.Now,
	}
}

// Generate picks the favorite of every contest of the week that has one.
// A week the synthetic participant already has picks for is left alone
// unless force is set. It returns the number of picks written.
func (g *FavoritesGenerator) Generate(ctx context.Context, week models.ScheduleWeek, settings models.PoolSettings, force bool) (int, error) {
	participantID := settings.SyntheticParticipantID
	if participantID == "" {
		return 0, nil
	}
	weekID, err := week.ID()
	if err != nil {
		return 0, fmt.Errorf("invalid week: %w", err)
	}
	logger := g.logger.WithField("week", weekID)

	if !force {
		existing, err := g.picks.GetPicks(ctx, participantID, weekID)
		if err != nil {
			return 0, fmt.Errorf("failed to read existing picks: %w", err)
		}
		if existing.Len() > 0 {
			logger.Debugf("%s already has %d picks", participantID, existing.Len())
			return 0, nil
		}
	}

	contests, err := g.gateway.ListContestsForDateRange(ctx, week.StartDate, week.EndDate)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch contests: %w", err)
	}

	now := g.now().UTC()
	var picks []models.Pick
	for _, c := range NormalizeContests(contests) {
		if c.FavoriteSide == models.SideNone {
			continue
		}
		picks = append(picks, models.Pick{ContestID: c.ID, ChosenSide: c.FavoriteSide, SubmittedAt: now})
	}
	if len(picks) == 0 {
		logger.Infof("No contests with a known favorite, nothing written")
		return 0, nil
	}

	if err := g.writer.ReplacePicks(ctx, participantID, weekID, week.Season, picks); err != nil {
		return 0, fmt.Errorf("failed to write favorite picks: %w", err)
	}
	logger.Infof("Wrote %d favorite picks for %s", len(picks), participantID)
	return len(picks), nil
}
