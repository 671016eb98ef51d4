package database

import (
	"context"
	"errors"
	"fmt"

	"nfl-pool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRecapRepository stores week recaps keyed by week id
type MongoRecapRepository struct {
	collection *mongo.Collection
}

// NewMongoRecapRepository creates a new MongoDB recap repository
func NewMongoRecapRepository(db *MongoDB) *MongoRecapRepository {
	collection := db.GetCollection("week_recaps")
	ensureIndexes(collection, mongo.IndexModel{
		Keys: bson.D{{Key: "season", Value: 1}},
	})
	return &MongoRecapRepository{collection: collection}
}

// GetRecap returns the recap of a week, or nil when none is stored
func (r *MongoRecapRepository) GetRecap(ctx context.Context, weekID string) (*models.WeekRecap, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	var recap models.WeekRecap
	err := r.collection.FindOne(ctx, bson.M{"_id": weekID}).Decode(&recap)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recap %s: %w", weekID, err)
	}
	return &recap, nil
}

// PutRecap replaces the stored recap of a week. Concurrent writers of the
// same week overwrite each other; the last write wins.
func (r *MongoRecapRepository) PutRecap(ctx context.Context, weekID string, recap *models.WeekRecap) error {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	recap.WeekID = weekID
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": weekID}, recap, opts); err != nil {
		return fmt.Errorf("failed to store recap %s: %w", weekID, err)
	}
	return nil
}

// ListRecapsBySeason returns every stored recap of a season
func (r *MongoRecapRepository) ListRecapsBySeason(ctx context.Context, season int) ([]*models.WeekRecap, error) {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"season": season})
	if err != nil {
		return nil, fmt.Errorf("failed to find recaps for season %d: %w", season, err)
	}
	defer cursor.Close(ctx)

	var recaps []*models.WeekRecap
	if err := cursor.All(ctx, &recaps); err != nil {
		return nil, fmt.Errorf("failed to decode recaps: %w", err)
	}
	return recaps, nil
}

// DeleteRecap removes the recap of a week
func (r *MongoRecapRepository) DeleteRecap(ctx context.Context, weekID string) error {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": weekID}); err != nil {
		return fmt.Errorf("failed to delete recap %s: %w", weekID, err)
	}
	return nil
}
