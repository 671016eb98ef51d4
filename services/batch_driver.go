package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nfl-pool/logging"
	"nfl-pool/models"

	"github.com/google/uuid"
)

// TriggerRequest asks for a single week to be recapped. Exactly one of
// WeekID and WeekOffset must be set; Season scopes WeekOffset.
type TriggerRequest struct {
	WeekID     *string `json:"weekId,omitempty"`
	WeekOffset *int    `json:"weekOffset,omitempty"`
	Season     int     `json:"season,omitempty"`
	Force      bool    `json:"force"`
}

// WeekOutcome is one line of a batch summary
type WeekOutcome struct {
	WeekID           string      `json:"weekId"`
	Status           RecapStatus `json:"status"`
	ParticipantCount int         `json:"participantCount"`
	TopScore         int         `json:"topScore"`
	Error            string      `json:"error,omitempty"`
}

// BatchSummary reports a season batch run
type BatchSummary struct {
	RunID           string        `json:"runId"`
	Season          int           `json:"season"`
	Mode            string        `json:"mode"`
	Force           bool          `json:"force"`
	ActiveWeekID    string        `json:"activeWeekId,omitempty"`
	StartedAt       time.Time     `json:"startedAt"`
	FinishedAt      time.Time     `json:"finishedAt"`
	Weeks           []WeekOutcome `json:"weeks"`
	Computed        int           `json:"computed"`
	Skipped         int           `json:"skipped"`
	NoFinishedGames int           `json:"noFinishedGames"`
	NoPicks         int           `json:"noPicks"`
	Failed          int           `json:"failed"`
	Abandoned       bool          `json:"abandoned"` // caller gave up before every week ran
}

func (s *BatchSummary) add(result *RecapResult) {
	s.Weeks = append(s.Weeks, WeekOutcome{
		WeekID:           result.WeekID,
		Status:           result.Status,
		ParticipantCount: result.ParticipantCount,
		TopScore:         result.TopScore,
		Error:            result.Error,
	})
	switch result.Status {
	case StatusComputed, StatusRecomputed:
		s.Computed++
	case StatusAlreadyExists:
		s.Skipped++
	case StatusNoFinishedGames:
		s.NoFinishedGames++
	case StatusNoPicks:
		s.NoPicks++
	default:
		s.Failed++
	}
}

// BatchDriver walks the weeks of a season, one at a time, through the recap service
type BatchDriver struct {
	calendar      *Calendar
	recaps        *RecapService
	settings      SettingsStore
	metrics       *Metrics
	logger        *logging.Logger
	defaultSeason int
	defaultDelay  time.Duration
	sleep         SleepFunc
	now           func() time.Time
}

// NewBatchDriver creates a new batch driver. defaultDelay applies when the
// season's settings carry no inter-week delay.
func NewBatchDriver(calendar *Calendar, recaps *RecapService, settings SettingsStore, metrics *Metrics, defaultSeason int, defaultDelay time.Duration) *BatchDriver {
	return &BatchDriver{
		calendar:      calendar,
		recaps:        recaps,
		settings:      settings,
		metrics:       metrics,
		logger:        logging.WithPrefix("BatchDriver"),
		defaultSeason: defaultSeason,
		defaultDelay:  defaultDelay,
		sleep:         sleepContext,
		now:           time.Now,
	}
}

// DefaultSeason returns the season used when a request names none
func (b *BatchDriver) DefaultSeason() int {
	return b.defaultSeason
}

// ResolveActiveWeek exposes the calendar resolution for leaderboard callers
func (b *BatchDriver) ResolveActiveWeek(ctx context.Context, season int) (*ActiveWeek, error) {
	return b.calendar.Resolve(ctx, season)
}

// RunSeason recaps every started scorable week of a season in playing order.
// It aborts only when the calendar or the active week cannot be determined;
// per-week failures are recorded in the summary.
func (b *BatchDriver) RunSeason(ctx context.Context, season int, mode Mode, force bool) (summary *BatchSummary, err error) {
	runID := uuid.NewString()
	logger := b.logger.WithField("run", runID[:8]).WithField("season", season)
	summary = &BatchSummary{
		RunID:     runID,
		Season:    season,
		Mode:      mode.String(),
		Force:     force,
		StartedAt: b.now(),
	}
	defer func() {
		summary.FinishedAt = b.now()
		b.metrics.batchFinished(mode, err)
	}()

	settings, err := b.settings.LoadSettings(ctx, season)
	if err != nil {
		return summary, fmt.Errorf("failed to load pool settings: %w", err)
	}

	active, err := b.calendar.Resolve(ctx, season)
	if err != nil {
		logger.Errorf("Aborting batch: %v", err)
		return summary, err
	}
	summary.ActiveWeekID = active.WeekID

	weeks := active.StartedScorableWeeks(b.now())
	delay := b.interWeekDelay(settings)
	logger.Infof("Starting %s batch over %d weeks (active=%q, force=%t, delay=%s)",
		mode, len(weeks), active.WeekID, force, delay)

	for i, week := range weeks {
		if i > 0 {
			if serr := b.sleep(ctx, delay); serr != nil {
				summary.Abandoned = true
				break
			}
		}
		if ctx.Err() != nil {
			summary.Abandoned = true
			break
		}

		result, _ := b.recaps.RecapWeek(ctx, week, settings, mode, force)
		summary.add(result)
	}

	if summary.Abandoned {
		logger.Warnf("Batch abandoned after %d of %d weeks", len(summary.Weeks), len(weeks))
	}
	logger.Infof("Batch done: computed=%d skipped=%d no_finished_games=%d no_picks=%d failed=%d",
		summary.Computed, summary.Skipped, summary.NoFinishedGames, summary.NoPicks, summary.Failed)
	return summary, nil
}

// Trigger recaps a single week named by id or by offset from the active week.
// Trigger always runs in manual mode.
func (b *BatchDriver) Trigger(ctx context.Context, req TriggerRequest) (*RecapResult, error) {
	if (req.WeekID == nil) == (req.WeekOffset == nil) {
		return nil, ErrInvalidTrigger
	}

	var week models.ScheduleWeek
	var season int
	if req.WeekID != nil {
		s, key, err := models.ParseWeekID(*req.WeekID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrWeekNotFound, err)
		}
		weeks, err := b.calendar.Weeks(ctx, s)
		if err != nil {
			return nil, err
		}
		found, ok := (&ActiveWeek{Season: s, Weeks: weeks}).Find(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrWeekNotFound, *req.WeekID)
		}
		week, season = found, s
	} else {
		season = req.Season
		if season == 0 {
			season = b.defaultSeason
		}
		active, err := b.calendar.Resolve(ctx, season)
		if err != nil {
			return nil, err
		}
		week, err = active.Offset(*req.WeekOffset, b.now())
		if err != nil {
			return nil, err
		}
	}

	settings, err := b.settings.LoadSettings(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("failed to load pool settings: %w", err)
	}
	return b.recaps.RecapWeek(ctx, week, settings, ModeManual, req.Force)
}

func (b *BatchDriver) interWeekDelay(settings models.PoolSettings) time.Duration {
	if settings.InterWeekDelay > 0 {
		return settings.InterWeekDelay
	}
	return b.defaultDelay
}

// IsClientError reports whether a trigger error was caused by the request itself
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTrigger) || errors.Is(err, ErrWeekNotFound)
}
