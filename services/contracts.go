package services

import (
	"context"
	"time"

	"nfl-pool/models"
)

// GameResultsGateway is the upstream source of contests and the season calendar
type GameResultsGateway interface {
	ListContestsForDateRange(ctx context.Context, start, end time.Time) ([]models.Contest, error)
	ListWeeks(ctx context.Context, season int) ([]models.ScheduleWeek, error)
	// CurrentWeek returns ErrOffSeason when no week is in progress
	CurrentWeek(ctx context.Context) (*models.ScheduleWeek, error)
}

// PickStore reads participants' picks. The engine never writes through it.
type PickStore interface {
	GetPicks(ctx context.Context, participantID, weekID string) (*models.PickSet, error)
}

// PickWriter writes picks on behalf of the synthetic always-favorite participant.
// Only the favorites generator holds one.
type PickWriter interface {
	ReplacePicks(ctx context.Context, participantID, weekID string, season int, picks []models.Pick) error
}

// RecapStore persists week recaps. GetRecap returns nil, nil when absent.
type RecapStore interface {
	GetRecap(ctx context.Context, weekID string) (*models.WeekRecap, error)
	PutRecap(ctx context.Context, weekID string, recap *models.WeekRecap) error
	ListRecapsBySeason(ctx context.Context, season int) ([]*models.WeekRecap, error)
}

// ParticipantDirectory lists the members of the pool
type ParticipantDirectory interface {
	ListParticipants(ctx context.Context) ([]models.Participant, error)
}

// SettingsStore loads and explicitly saves per-season pool settings.
// LoadSettings returns defaults when nothing is stored.
type SettingsStore interface {
	LoadSettings(ctx context.Context, season int) (models.PoolSettings, error)
	SaveSettings(ctx context.Context, settings models.PoolSettings) error
}
