package models

// SeasonStanding represents a participant's season totals folded from week recaps
type SeasonStanding struct {
	Rank              int    `json:"rank"`
	ParticipantID     string `json:"participantId"`
	Name              string `json:"name,omitempty"`
	TotalCorrect      int    `json:"totalCorrect"`
	TotalContests     int    `json:"totalContests"`
	OverallPercentage int    `json:"overallPercentage"`
	WeeksWon          int    `json:"weeksWon"`
	WeeksPlayed       int    `json:"weeksPlayed"`
	Incomplete        bool   `json:"incomplete"` // did not play every included week
}

// Leaderboard represents the season standings and the weeks they were built from
type Leaderboard struct {
	Season          int              `json:"season"`
	ActiveWeekID    string           `json:"activeWeekId,omitempty"`
	IncludedWeekIDs []string         `json:"includedWeekIds"`
	Standings       []SeasonStanding `json:"standings"`
	Verified        bool             `json:"verified"`
	Mismatches      []string         `json:"mismatches,omitempty"`
}
