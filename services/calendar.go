package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"nfl-pool/logging"
	"nfl-pool/models"
)

// ActiveWeek is the season calendar together with the week in progress,
// resolved once and passed to everything that needs to know "now"
type ActiveWeek struct {
	Season int
	Week   *models.ScheduleWeek // nil when no week of this season is in progress
	WeekID string
	Weeks  []models.ScheduleWeek // playing order
}

// ScorableWeeks returns the regular and postseason weeks in playing order
func (a *ActiveWeek) ScorableWeeks() []models.ScheduleWeek {
	var weeks []models.ScheduleWeek
	for _, w := range a.Weeks {
		if w.IsScorable() {
			weeks = append(weeks, w)
		}
	}
	return weeks
}

// StartedScorableWeeks returns the scorable weeks that have begun by now
func (a *ActiveWeek) StartedScorableWeeks(now time.Time) []models.ScheduleWeek {
	var weeks []models.ScheduleWeek
	for _, w := range a.ScorableWeeks() {
		if !w.StartDate.IsZero() && !w.StartDate.After(now) {
			weeks = append(weeks, w)
		}
	}
	return weeks
}

// Find returns the week with the given key
func (a *ActiveWeek) Find(weekKey string) (models.ScheduleWeek, bool) {
	for _, w := range a.Weeks {
		if key, err := w.Key(); err == nil && key == weekKey {
			return w, true
		}
	}
	return models.ScheduleWeek{}, false
}

// Offset resolves a week relative to the active scorable week (0 is the
// active week, -1 the one before). Outside a scorable week the most recent
// started scorable week is the reference.
func (a *ActiveWeek) Offset(offset int, now time.Time) (models.ScheduleWeek, error) {
	scorable := a.ScorableWeeks()

	base := -1
	if a.Week != nil && a.Week.IsScorable() {
		for i, w := range scorable {
			if w.Phase == a.Week.Phase && w.Ordinal == a.Week.Ordinal {
				base = i
				break
			}
		}
	}
	if base < 0 {
		for i, w := range scorable {
			if !w.StartDate.IsZero() && !w.StartDate.After(now) {
				base = i
			}
		}
	}
	if base < 0 {
		return models.ScheduleWeek{}, fmt.Errorf("%w: season %d has no started week to offset from", ErrWeekNotFound, a.Season)
	}

	target := base + offset
	if target < 0 || target >= len(scorable) {
		return models.ScheduleWeek{}, fmt.Errorf("%w: offset %d is outside season %d", ErrWeekNotFound, offset, a.Season)
	}
	return scorable[target], nil
}

// Calendar resolves the season calendar and the active week from the gateway
type Calendar struct {
	gateway GameResultsGateway
	logger  *logging.Logger
}

// NewCalendar creates a new calendar
func NewCalendar(gateway GameResultsGateway) *Calendar {
	return &Calendar{
		gateway: gateway,
		logger:  logging.WithPrefix("Calendar"),
	}
}

// Weeks returns the season's weeks in playing order
func (c *Calendar) Weeks(ctx context.Context, season int) ([]models.ScheduleWeek, error) {
	weeks, err := c.gateway.ListWeeks(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("failed to list weeks for season %d: %w", season, err)
	}
	sortWeeks(weeks)
	return weeks, nil
}

// Resolve returns the calendar and the active week of a season. During the
// pro bowl week the following week is treated as active.
func (c *Calendar) Resolve(ctx context.Context, season int) (*ActiveWeek, error) {
	weeks, err := c.Weeks(ctx, season)
	if err != nil {
		return nil, err
	}
	active := &ActiveWeek{Season: season, Weeks: weeks}

	current, err := c.gateway.CurrentWeek(ctx)
	switch {
	case errors.Is(err, ErrOffSeason):
		c.logger.Debugf("Off-season, no active week for %d", season)
		return active, nil
	case err != nil:
		return nil, fmt.Errorf("failed to determine current week: %w", err)
	case current == nil || current.Season != season:
		return active, nil
	}

	week := *current
	if week.Phase == models.PhaseExhibition {
		next, ok := nextWeek(weeks, week)
		if !ok {
			c.logger.Warnf("No week follows the pro bowl in season %d", season)
			return active, nil
		}
		week = next
	} else if listed, ok := active.Find(keyOf(week)); ok {
		week = listed
	}

	id, err := week.ID()
	if err != nil {
		return nil, fmt.Errorf("current week is not on the calendar: %w", err)
	}
	active.Week = &week
	active.WeekID = id
	return active, nil
}

func nextWeek(weeks []models.ScheduleWeek, after models.ScheduleWeek) (models.ScheduleWeek, bool) {
	afterKey, err := after.Key()
	if err != nil {
		return models.ScheduleWeek{}, false
	}
	order := models.WeekOrder(afterKey)
	for _, w := range weeks {
		if key, err := w.Key(); err == nil && models.WeekOrder(key) > order {
			return w, true
		}
	}
	return models.ScheduleWeek{}, false
}

func keyOf(w models.ScheduleWeek) string {
	key, _ := w.Key()
	return key
}

func sortWeeks(weeks []models.ScheduleWeek) {
	sort.SliceStable(weeks, func(i, j int) bool {
		return models.WeekOrder(keyOf(weeks[i])) < models.WeekOrder(keyOf(weeks[j]))
	})
}
