package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"nfl-pool/logging"
	"nfl-pool/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoPickRepository reads weekly pick documents. Documents come in two
// shapes: the current map form keyed by contest id, and the legacy array
// form written by the old importer (user_id/season/week with game_id entries).
type MongoPickRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
}

// NewMongoPickRepository creates a new MongoDB pick repository
func NewMongoPickRepository(db *MongoDB) *MongoPickRepository {
	collection := db.GetCollection("weekly_picks")
	ensureIndexes(collection,
		mongo.IndexModel{Keys: bson.D{{Key: "participant_id", Value: 1}, {Key: "week_id", Value: 1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "season", Value: 1}, {Key: "week", Value: 1}}},
	)
	return &MongoPickRepository{
		collection: collection,
		logger:     logging.WithPrefix("PickRepository"),
	}
}

// GetPicks returns a participant's picks for a week. A participant without
// a document gets an empty set. When both a current and a legacy document
// exist for the week, their picks are merged.
func (r *MongoPickRepository) GetPicks(ctx context.Context, participantID, weekID string) (*models.PickSet, error) {
	ctx, cancel := WithShortTimeout(ctx)
	defer cancel()

	cursor, err := r.collection.Find(ctx, pickFilter(participantID, weekID))
	if err != nil {
		return nil, fmt.Errorf("failed to find picks for %s in %s: %w", participantID, weekID, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode picks for %s in %s: %w", participantID, weekID, err)
	}
	if len(docs) > 1 {
		r.logger.Debugf("Merging %d pick documents for %s in %s", len(docs), participantID, weekID)
	}

	ps := MergePickDocuments(participantID, weekID, docs)
	if ps.Malformed > 0 {
		r.logger.Warnf("Skipped %d malformed picks for %s in %s", ps.Malformed, participantID, weekID)
	}
	return ps, nil
}

// MergePickDocuments decodes every document matched for a participant's week
// into one PickSet. A contest picked in more than one document keeps the
// latest submission, so the result does not depend on document order.
func MergePickDocuments(participantID, weekID string, docs []bson.M) *models.PickSet {
	merged := models.NewPickSet(participantID, weekID)
	for _, doc := range docs {
		ps := DecodePickDocument(participantID, weekID, doc)
		merged.Malformed += ps.Malformed
		mergePicks(merged.ByContest, ps.ByContest)
		mergePicks(merged.Legacy, ps.Legacy)
	}
	return merged
}

func mergePicks(dst, src map[string]models.Pick) {
	for key, p := range src {
		if existing, ok := dst[key]; ok {
			if existing.SubmittedAt.After(p.SubmittedAt) {
				continue
			}
			if existing.SubmittedAt.Equal(p.SubmittedAt) && existing.ChosenSide <= p.ChosenSide {
				continue
			}
		}
		dst[key] = p
	}
}

// participantIDValues matches ids stored as strings or as integers
func participantIDValues(participantID string) bson.A {
	values := bson.A{participantID}
	if n, err := strconv.Atoi(participantID); err == nil {
		values = append(values, n, int64(n))
	}
	return values
}

func pickFilter(participantID, weekID string) bson.M {
	ids := participantIDValues(participantID)
	clauses := bson.A{
		bson.M{"participant_id": bson.M{"$in": ids}, "week_id": weekID},
	}

	// Legacy documents only exist for regular season weeks
	if season, key, err := models.ParseWeekID(weekID); err == nil {
		if parts, err := models.ParseWeekKey(key); err == nil && parts.Phase == models.PhaseRegular {
			clauses = append(clauses, bson.M{
				"user_id": bson.M{"$in": ids},
				"season":  season,
				"week":    parts.Ordinal,
			})
		}
	}
	return bson.M{"$or": clauses}
}

// DecodePickDocument validates an untyped pick document into a PickSet.
// Entries without a usable side are skipped and counted as malformed.
func DecodePickDocument(participantID, weekID string, doc bson.M) *models.PickSet {
	ps := models.NewPickSet(participantID, weekID)

	switch picks := doc["picks"].(type) {
	case bson.M:
		for key, value := range picks {
			addPick(ps, key, value, "chosen_side", "submitted_at", false)
		}
	case map[string]interface{}:
		for key, value := range picks {
			addPick(ps, key, value, "chosen_side", "submitted_at", false)
		}
	case bson.D:
		for _, e := range picks {
			addPick(ps, e.Key, e.Value, "chosen_side", "submitted_at", false)
		}
	case bson.A:
		decodeLegacyArray(ps, picks)
	case []interface{}:
		decodeLegacyArray(ps, picks)
	case nil:
	default:
		ps.Malformed++
	}
	return ps
}

func decodeLegacyArray(ps *models.PickSet, entries []interface{}) {
	for _, raw := range entries {
		entry := asMap(raw)
		if entry == nil {
			ps.Malformed++
			continue
		}
		key, ok := rawKey(entry["game_id"])
		if !ok {
			ps.Malformed++
			continue
		}
		sideField := "side"
		if _, has := entry[sideField]; !has {
			sideField = "team_side"
		}
		addPick(ps, key, entry, sideField, "created_at", true)
	}
}

// addPick stores one entry. Current documents are keyed by canonical contest
// id; legacy entries keep their raw key. The later submission wins a collision.
func addPick(ps *models.PickSet, key string, value interface{}, sideField, timeField string, legacy bool) {
	var side models.Side
	var submitted time.Time
	var ok bool

	switch v := value.(type) {
	case string:
		side, ok = models.ParseSide(v)
	default:
		entry := asMap(v)
		if entry == nil {
			break
		}
		if s, isString := entry[sideField].(string); isString {
			side, ok = models.ParseSide(s)
		}
		submitted = asTime(entry[timeField])
	}
	if !ok {
		ps.Malformed++
		return
	}

	target, id := ps.Legacy, key
	if !legacy {
		canonical, ok := models.CanonicalID(key)
		if !ok {
			ps.Malformed++
			return
		}
		target, id = ps.ByContest, canonical
	}

	if prev, exists := target[id]; exists && prev.SubmittedAt.After(submitted) {
		return
	}
	target[id] = models.Pick{ContestID: id, ChosenSide: side, SubmittedAt: submitted}
}

// rawKey renders a stored game id as text without losing non-integral values
func rawKey(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case int32:
		return strconv.FormatInt(int64(id), 10), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case int:
		return strconv.Itoa(id), true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	}
	return "", false
}

func asMap(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case bson.M:
		return m
	case map[string]interface{}:
		return m
	case bson.D:
		return m.Map()
	}
	return nil
}

func asTime(v interface{}) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	}
	return time.Time{}
}
