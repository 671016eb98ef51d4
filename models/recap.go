package models

import (
	"math"
	"time"
)

// ParticipantRecap represents one participant's result for a recapped week
type ParticipantRecap struct {
	ParticipantID   string `json:"participantId" bson:"participant_id"`
	Correct         int    `json:"correct" bson:"correct"`
	Total           int    `json:"total" bson:"total"`
	Percentage      int    `json:"percentage" bson:"percentage"`
	UnderdogPicks   int    `json:"underdogPicks" bson:"underdog_picks"`
	UnderdogCorrect int    `json:"underdogCorrect" bson:"underdog_correct"`
	IsTopScore      bool   `json:"isTopScore" bson:"is_top_score"`
}

// WeekRecap is the persisted scoring result of one week across every
// participant who played it
type WeekRecap struct {
	WeekID         string             `json:"weekId" bson:"_id"`
	Season         int                `json:"season" bson:"season"`
	WeekKey        string             `json:"weekKey" bson:"week_key"`
	CalculatedAt   time.Time          `json:"calculatedAt" bson:"calculated_at"`
	PerParticipant []ParticipantRecap `json:"perParticipant" bson:"per_participant"`
}

// TopScore returns the highest correct count of the week (0 when nobody played)
func (r *WeekRecap) TopScore() int {
	top := 0
	for _, p := range r.PerParticipant {
		if p.Correct > top {
			top = p.Correct
		}
	}
	return top
}

// Participant returns the recap entry for a participant, if they played
func (r *WeekRecap) Participant(participantID string) (ParticipantRecap, bool) {
	for _, p := range r.PerParticipant {
		if p.ParticipantID == participantID {
			return p, true
		}
	}
	return ParticipantRecap{}, false
}

// Percent returns round(100*num/den), or 0 when den is 0
func Percent(num, den int) int {
	if den <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(num) / float64(den)))
}
