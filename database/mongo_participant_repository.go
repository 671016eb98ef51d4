package database

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"nfl-pool/logging"
	"nfl-pool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoParticipantRepository lists pool participants. Older documents use
// integer ids, newer ones strings; both are exposed as strings.
type MongoParticipantRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
}

// NewMongoParticipantRepository creates a new MongoDB participant repository
func NewMongoParticipantRepository(db *MongoDB) *MongoParticipantRepository {
	return &MongoParticipantRepository{
		collection: db.GetCollection("participants"),
		logger:     logging.WithPrefix("ParticipantRepository"),
	}
}

// ListParticipants returns every participant, ordered by id
func (r *MongoParticipantRepository) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	ctx, cancel := WithMediumTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find participants: %w", err)
	}
	defer cursor.Close(ctx)

	var participants []models.Participant
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode participant: %w", err)
		}
		p, ok := DecodeParticipant(doc)
		if !ok {
			r.logger.Warnf("Skipping participant with unusable id %v", doc["_id"])
			continue
		}
		participants = append(participants, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	sort.Slice(participants, func(i, j int) bool { return participants[i].ID < participants[j].ID })
	return participants, nil
}

// UpsertParticipant creates or updates a participant
func (r *MongoParticipantRepository) UpsertParticipant(ctx context.Context, p models.Participant) error {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	// Keep the stored id type of an existing participant
	var id interface{} = p.ID
	var existing bson.M
	err := r.collection.FindOne(ctx, bson.M{"_id": bson.M{"$in": participantIDValues(p.ID)}}).Decode(&existing)
	switch {
	case err == nil:
		id = existing["_id"]
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("failed to find participant %s: %w", p.ID, err)
	}

	update := bson.M{"$set": bson.M{
		"name":      p.Name,
		"active":    p.Active,
		"synthetic": p.Synthetic,
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update, opts); err != nil {
		return fmt.Errorf("failed to upsert participant %s: %w", p.ID, err)
	}
	return nil
}

// DecodeParticipant validates an untyped participant document
func DecodeParticipant(doc bson.M) (models.Participant, bool) {
	id, ok := models.CanonicalID(doc["_id"])
	if !ok {
		return models.Participant{}, false
	}
	p := models.Participant{ID: id, Active: true}
	if name, ok := doc["name"].(string); ok {
		p.Name = name
	}
	if active, ok := doc["active"].(bool); ok {
		p.Active = active
	}
	if synthetic, ok := doc["synthetic"].(bool); ok {
		p.Synthetic = synthetic
	}
	return p, true
}
