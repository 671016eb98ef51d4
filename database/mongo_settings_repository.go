package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nfl-pool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSettingsRepository stores pool settings, one document per season
type MongoSettingsRepository struct {
	collection *mongo.Collection
}

// NewMongoSettingsRepository creates a new MongoDB settings repository
func NewMongoSettingsRepository(db *MongoDB) *MongoSettingsRepository {
	return &MongoSettingsRepository{collection: db.GetCollection("pool_settings")}
}

// LoadSettings returns the season's settings, or the defaults when none are stored
func (r *MongoSettingsRepository) LoadSettings(ctx context.Context, season int) (models.PoolSettings, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	var settings models.PoolSettings
	err := r.collection.FindOne(ctx, bson.M{"_id": season}).Decode(&settings)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.DefaultPoolSettings(season), nil
		}
		return models.PoolSettings{}, fmt.Errorf("failed to load settings for season %d: %w", season, err)
	}
	return settings, nil
}

// SaveSettings writes the season's settings
func (r *MongoSettingsRepository) SaveSettings(ctx context.Context, settings models.PoolSettings) error {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	settings.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": settings.Season}, settings, opts); err != nil {
		return fmt.Errorf("failed to save settings for season %d: %w", settings.Season, err)
	}
	return nil
}

// SeedSettings saves each entry whose season has nothing stored yet and
// returns the seasons it wrote
func (r *MongoSettingsRepository) SeedSettings(ctx context.Context, entries []models.PoolSettings) ([]int, error) {
	var seeded []int
	for _, s := range entries {
		cctx, cancel := WithShortTimeout(ctx)
		count, err := r.collection.CountDocuments(cctx, bson.M{"_id": s.Season})
		cancel()
		if err != nil {
			return seeded, fmt.Errorf("failed to check settings for season %d: %w", s.Season, err)
		}
		if count > 0 {
			continue
		}
		if err := r.SaveSettings(ctx, s); err != nil {
			return seeded, err
		}
		seeded = append(seeded, s.Season)
	}
	return seeded, nil
}
