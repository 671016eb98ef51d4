package models

import "time"

// PoolSettings holds the per-season pool configuration. It is loaded once per
// request or batch and treated as immutable for that scope.
type PoolSettings struct {
	Season                 int           `json:"season" bson:"_id" koanf:"season"`
	SyntheticParticipantID string        `json:"syntheticParticipantId" bson:"synthetic_participant_id" koanf:"synthetic_participant_id"`
	LegacyTieBreak         bool          `json:"legacyTieBreak" bson:"legacy_tie_break" koanf:"legacy_tie_break"`
	InterWeekDelay         time.Duration `json:"interWeekDelay" bson:"inter_week_delay" koanf:"inter_week_delay"`
	UpdatedAt              time.Time     `json:"updatedAt" bson:"updated_at" koanf:"-"`
}

// DefaultPoolSettings returns the settings used when nothing is stored for a season
func DefaultPoolSettings(season int) PoolSettings {
	return PoolSettings{
		Season:         season,
		InterWeekDelay: 2 * time.Second,
	}
}
