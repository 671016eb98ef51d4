package database

import (
	"context"
	"fmt"
	"time"

	"nfl-pool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPickWriter writes weekly pick documents in the map form. It is kept
// apart from MongoPickRepository so scoring code only ever holds the reader.
type MongoPickWriter struct {
	collection *mongo.Collection
}

// NewMongoPickWriter creates a new MongoDB pick writer
func NewMongoPickWriter(db *MongoDB) *MongoPickWriter {
	return &MongoPickWriter{collection: db.GetCollection("weekly_picks")}
}

// ReplacePicks overwrites a participant's picks for a week
func (w *MongoPickWriter) ReplacePicks(ctx context.Context, participantID, weekID string, season int, picks []models.Pick) error {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	byContest := bson.M{}
	for _, p := range picks {
		byContest[p.ContestID] = bson.M{
			"chosen_side":  string(p.ChosenSide),
			"submitted_at": p.SubmittedAt,
		}
	}

	filter := bson.M{"participant_id": participantID, "week_id": weekID}
	update := bson.M{
		"$set": bson.M{
			"participant_id": participantID,
			"week_id":        weekID,
			"season":         season,
			"picks":          byContest,
			"updated_at":     time.Now().UTC(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := w.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to write picks for %s in %s: %w", participantID, weekID, err)
	}
	return nil
}
