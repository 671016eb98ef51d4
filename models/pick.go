package models

import (
	"sort"
	"time"
)

// Pick represents a participant's selection for one contest
type Pick struct {
	ContestID   string    `json:"contestId" bson:"contest_id"`
	ChosenSide  Side      `json:"chosenSide" bson:"chosen_side"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submitted_at"`
}

// PickSet holds one participant's picks for one week, validated from the
// stored document. Picks are keyed by canonical contest id; Legacy keeps
// entries from documents written before ids were normalized, under the raw key.
type PickSet struct {
	ParticipantID string
	WeekID        string
	ByContest     map[string]Pick
	Legacy        map[string]Pick
	Malformed     int // entries dropped at decode time
}

// NewPickSet creates an empty pick set
func NewPickSet(participantID, weekID string) *PickSet {
	return &PickSet{
		ParticipantID: participantID,
		WeekID:        weekID,
		ByContest:     make(map[string]Pick),
		Legacy:        make(map[string]Pick),
	}
}

// Len returns the number of picks made
func (ps *PickSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.ByContest) + len(ps.Legacy)
}

// Lookup finds the pick for a contest by its canonical id, falling back to the
// provider's raw id for legacy documents.
// TODO: drop the Legacy fallback once weekly_picks has been migrated to canonical keys.
func (ps *PickSet) Lookup(c *Contest) (Pick, bool) {
	if ps == nil {
		return Pick{}, false
	}
	if p, ok := ps.ByContest[c.ID]; ok {
		return p, true
	}
	if c.RawID != "" {
		if p, ok := ps.Legacy[c.RawID]; ok {
			return p, true
		}
	}
	if p, ok := ps.Legacy[c.ID]; ok {
		return p, true
	}
	return Pick{}, false
}

// Keys returns every stored pick key, sorted
func (ps *PickSet) Keys() []string {
	if ps == nil {
		return nil
	}
	keys := make([]string, 0, ps.Len())
	for k := range ps.ByContest {
		keys = append(keys, k)
	}
	for k := range ps.Legacy {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
