package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"nfl-pool/logging"
	"nfl-pool/models"

	"golang.org/x/sync/errgroup"
)

// Mode selects which recompute rules apply to an existing recap
type Mode int

const (
	// ModeManual is the admin path: existing recaps are kept unless forced
	ModeManual Mode = iota
	// ModeScheduled is the automatic path: stale recaps are recomputed once the week ends
	ModeScheduled
)

func (m Mode) String() string {
	if m == ModeScheduled {
		return "scheduled"
	}
	return "manual"
}

// RecapStatus is the outcome of recapping one week
type RecapStatus string

const (
	StatusComputed        RecapStatus = "computed"
	StatusRecomputed      RecapStatus = "recomputed"
	StatusAlreadyExists   RecapStatus = "already_exists"
	StatusNoFinishedGames RecapStatus = "no_finished_games"
	StatusNoPicks         RecapStatus = "no_picks"
	StatusFailed          RecapStatus = "failed"
)

const (
	pickFetchConcurrency = 8
	diagnosticSampleSize = 5
	lowMatchRatio        = 0.5
)

// MatchDiagnostics describes how well pick keys lined up with contest ids
type MatchDiagnostics struct {
	ParticipantsWithPicks int      `json:"participantsWithPicks"`
	AnyIdentifierOverlap  bool     `json:"anyIdentifierOverlap"`
	MatchedPicks          int      `json:"matchedPicks"`
	MalformedPicks        int      `json:"malformedPicks"`
	ContestIDSample       []string `json:"contestIdSample"`
	PickKeySample         []string `json:"pickKeySample"`
	LowMatch              bool     `json:"lowMatch"`
}

// RecapResult reports what happened to one week
type RecapResult struct {
	Success          bool              `json:"success"`
	WeekID           string            `json:"weekId"`
	Status           RecapStatus       `json:"status"`
	ParticipantCount int               `json:"participantCount"`
	TopScore         int               `json:"topScore"`
	CalculatedAt     *time.Time        `json:"calculatedAt,omitempty"`
	Diagnostics      *MatchDiagnostics `json:"diagnostics,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// RecapService applies the recap persistence policy to single weeks
type RecapService struct {
	gateway      GameResultsGateway
	picks        PickStore
	recaps       RecapStore
	participants ParticipantDirectory
	metrics      *Metrics
	logger       *logging.Logger
	now          func() time.Time
}

// NewRecapService creates a new recap service
func NewRecapService(gateway GameResultsGateway, picks PickStore, recaps RecapStore, participants ParticipantDirectory, metrics *Metrics) *RecapService {
	return &RecapService{
		gateway:      gateway,
		picks:        picks,
		recaps:       recaps,
		participants: participants,
		metrics:      metrics,
		logger:       logging.WithPrefix("RecapService"),
		now:          time.Now,
	}
}

// RecapWeek computes and stores the recap of a week when the policy calls for it.
// The returned error is non-nil only for failed weeks; the result is always set.
func (s *RecapService) RecapWeek(ctx context.Context, week models.ScheduleWeek, settings models.PoolSettings, mode Mode, force bool) (*RecapResult, error) {
	started := s.now()
	weekID, err := week.ID()
	if err != nil {
		return s.fail("", started, fmt.Errorf("invalid week: %w", err))
	}
	logger := s.logger.WithField("week", weekID)
	if !week.IsScorable() {
		return s.fail(weekID, started, fmt.Errorf("%w: %s is not a scored week", ErrWeekNotFound, weekID))
	}

	existing, err := s.recaps.GetRecap(ctx, weekID)
	if err != nil {
		return s.fail(weekID, started, fmt.Errorf("failed to read recap: %w", err))
	}

	recompute, status := decideRecompute(existing, week, mode, force, s.now())
	if !recompute {
		logger.Debugf("Recap exists (calculated %s), skipping", existing.CalculatedAt.Format(time.RFC3339))
		s.metrics.recapFinished(StatusAlreadyExists, started)
		calculatedAt := existing.CalculatedAt
		return &RecapResult{
			Success:          true,
			WeekID:           weekID,
			Status:           StatusAlreadyExists,
			ParticipantCount: len(existing.PerParticipant),
			TopScore:         existing.TopScore(),
			CalculatedAt:     &calculatedAt,
		}, nil
	}

	contests, err := s.gateway.ListContestsForDateRange(ctx, week.StartDate, week.EndDate)
	if err != nil {
		return s.fail(weekID, started, fmt.Errorf("failed to fetch contests: %w", err))
	}
	countable := models.CountableContests(NormalizeContests(contests))
	if len(countable) == 0 {
		logger.Infof("No finished games among %d contests, not persisting", len(contests))
		s.metrics.recapFinished(StatusNoFinishedGames, started)
		return &RecapResult{WeekID: weekID, Status: StatusNoFinishedGames}, nil
	}

	picks, err := s.loadPicks(ctx, weekID)
	if err != nil {
		return s.fail(weekID, started, err)
	}

	key, _ := week.Key()
	recap, diag := BuildRecap(week.Season, key, countable, picks, settings, s.now())
	if diag.ParticipantsWithPicks == 0 {
		// weeks nobody picked are never stored
		logger.Warnf("No picks stored under %s for %d countable contests, not persisting (contests=%v)",
			weekID, len(countable), diag.ContestIDSample)
		s.metrics.lowMatch()
		s.metrics.recapFinished(StatusNoPicks, started)
		return &RecapResult{WeekID: weekID, Status: StatusNoPicks, Diagnostics: &diag}, nil
	}
	if diag.LowMatch {
		logger.Warnf("Low pick/contest match: %d participants with picks, %d matched picks over %d contests, overlap=%t contests=%v keys=%v",
			diag.ParticipantsWithPicks, diag.MatchedPicks, len(countable), diag.AnyIdentifierOverlap,
			diag.ContestIDSample, diag.PickKeySample)
		s.metrics.lowMatch()
	}

	if err := s.recaps.PutRecap(ctx, weekID, recap); err != nil {
		return s.fail(weekID, started, fmt.Errorf("failed to store recap: %w", err))
	}

	logger.Infof("%s recap: %d participants, %d countable contests, top score %d",
		status, len(recap.PerParticipant), len(countable), recap.TopScore())
	s.metrics.recapFinished(status, started)

	return &RecapResult{
		Success:          true,
		WeekID:           weekID,
		Status:           status,
		ParticipantCount: len(recap.PerParticipant),
		TopScore:         recap.TopScore(),
		CalculatedAt:     &recap.CalculatedAt,
		Diagnostics:      &diag,
	}, nil
}

func (s *RecapService) fail(weekID string, started time.Time, err error) (*RecapResult, error) {
	s.logger.WithField("week", weekID).Errorf("Recap failed: %v", err)
	s.metrics.recapFinished(StatusFailed, started)
	return &RecapResult{WeekID: weekID, Status: StatusFailed, Error: err.Error()}, err
}

// loadPicks fetches every participant's picks for the week concurrently
func (s *RecapService) loadPicks(ctx context.Context, weekID string) (map[string]*models.PickSet, error) {
	participants, err := s.participants.ListParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	sets := make([]*models.PickSet, len(participants))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pickFetchConcurrency)
	for i, p := range participants {
		i, p := i, p
		g.Go(func() error {
			ps, err := s.picks.GetPicks(gctx, p.ID, weekID)
			if err != nil {
				return fmt.Errorf("failed to load picks for participant %s: %w", p.ID, err)
			}
			sets[i] = ps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byParticipant := make(map[string]*models.PickSet, len(participants))
	for i, p := range participants {
		byParticipant[p.ID] = sets[i]
	}
	return byParticipant, nil
}

// decideRecompute applies the persistence policy to an existing recap
func decideRecompute(existing *models.WeekRecap, week models.ScheduleWeek, mode Mode, force bool, now time.Time) (bool, RecapStatus) {
	switch {
	case existing == nil:
		return true, StatusComputed
	case force:
		return true, StatusRecomputed
	case mode == ModeScheduled && existing.CalculatedAt.Before(week.EndDate) && week.HasEnded(now):
		return true, StatusRecomputed
	}
	return false, StatusAlreadyExists
}

// BuildRecap scores every participant against the countable contests and
// resolves the week's top scorers. Participants without picks are left out.
func BuildRecap(season int, weekKey string, countable []models.Contest, picks map[string]*models.PickSet, settings models.PoolSettings, now time.Time) (*models.WeekRecap, MatchDiagnostics) {
	calc := NewScoreCalculator(settings)

	ids := make([]string, 0, len(picks))
	for id := range picks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var diag MatchDiagnostics
	tallies := make(map[string]Tally, len(ids))
	keySeen := make(map[string]bool)
	for _, id := range ids {
		ps := picks[id]
		if ps != nil {
			diag.MalformedPicks += ps.Malformed
		}
		tally, played := calc.Score(countable, ps)
		if !played {
			continue
		}
		tallies[id] = tally
		diag.ParticipantsWithPicks++
		diag.MatchedPicks += tally.Matched

		for _, k := range ps.Keys() {
			if len(diag.PickKeySample) >= diagnosticSampleSize {
				break
			}
			if !keySeen[k] {
				keySeen[k] = true
				diag.PickKeySample = append(diag.PickKeySample, k)
			}
		}
	}

	for i := 0; i < len(countable) && i < diagnosticSampleSize; i++ {
		diag.ContestIDSample = append(diag.ContestIDSample, countable[i].ID)
	}
	diag.AnyIdentifierOverlap = diag.MatchedPicks > 0
	possible := diag.ParticipantsWithPicks * len(countable)
	diag.LowMatch = len(countable) > 0 && (diag.ParticipantsWithPicks == 0 ||
		!diag.AnyIdentifierOverlap || float64(diag.MatchedPicks) < lowMatchRatio*float64(possible))

	_, winners := ResolveTopScore(tallies)

	recap := &models.WeekRecap{
		WeekID:         models.WeekID(season, weekKey),
		Season:         season,
		WeekKey:        weekKey,
		CalculatedAt:   now.UTC(),
		PerParticipant: make([]models.ParticipantRecap, 0, len(tallies)),
	}
	for _, id := range ids {
		tally, ok := tallies[id]
		if !ok {
			continue
		}
		recap.PerParticipant = append(recap.PerParticipant, models.ParticipantRecap{
			ParticipantID:   id,
			Correct:         tally.Correct,
			Total:           tally.Total,
			Percentage:      models.Percent(tally.Correct, tally.Total),
			UnderdogPicks:   tally.UnderdogPicks,
			UnderdogCorrect: tally.UnderdogCorrect,
			IsTopScore:      winners[id],
		})
	}
	return recap, diag
}
