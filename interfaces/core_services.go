package interfaces

import (
	"context"

	"nfl-pool/models"
	"nfl-pool/services"
)

// RecapRepository is the recap store plus the operator-only delete
type RecapRepository interface {
	services.RecapStore
	DeleteRecap(ctx context.Context, weekID string) error
}

// ParticipantRepository is the participant directory plus operator writes
type ParticipantRepository interface {
	services.ParticipantDirectory
	UpsertParticipant(ctx context.Context, p models.Participant) error
}

// SettingsRepository is the settings store plus first-run seeding
type SettingsRepository interface {
	services.SettingsStore
	SeedSettings(ctx context.Context, entries []models.PoolSettings) ([]int, error)
}
