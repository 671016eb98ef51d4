package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ContestStatus represents the lifecycle state of a contest
type ContestStatus string

const (
	ContestScheduled ContestStatus = "scheduled"
	ContestLive      ContestStatus = "live"
	ContestFinal     ContestStatus = "final"
)

// Side identifies one of the two participants of a contest.
// Side A is the home team, side B the away team.
type Side string

const (
	SideA    Side = "A"
	SideB    Side = "B"
	SideNone Side = ""
)

// ParseSide accepts the side spellings found in pick documents ("A", "home", "b", ...)
func ParseSide(raw string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "a", "home":
		return SideA, true
	case "b", "away":
		return SideB, true
	}
	return SideNone, false
}

// Outcome is the resolved result of a countable contest
type Outcome string

const (
	OutcomeA    Outcome = "A"
	OutcomeB    Outcome = "B"
	OutcomeDraw Outcome = "draw"
)

// Contest represents a single scheduled game as reported by the results provider
type Contest struct {
	ID           string        `json:"id" bson:"id"`
	RawID        string        `json:"rawId,omitempty" bson:"raw_id,omitempty"` // id exactly as the provider emitted it
	Date         time.Time     `json:"date" bson:"date"`
	SideA        string        `json:"sideA" bson:"side_a"`
	SideB        string        `json:"sideB" bson:"side_b"`
	ScoreA       *int          `json:"scoreA" bson:"score_a"`
	ScoreB       *int          `json:"scoreB" bson:"score_b"`
	Status       ContestStatus `json:"status" bson:"status"`
	FavoriteSide Side          `json:"favoriteSide" bson:"favorite_side"`
}

// IsCountable returns true if the contest is final and both scores are present
func (c *Contest) IsCountable() bool {
	return c.Status == ContestFinal && c.ScoreA != nil && c.ScoreB != nil
}

// Outcome resolves the winner of a countable contest. Equal scores resolve to a
// draw unless legacyTieBreak is set, in which case side B takes the tie.
func (c *Contest) Outcome(legacyTieBreak bool) Outcome {
	if *c.ScoreA > *c.ScoreB {
		return OutcomeA
	}
	if *c.ScoreA == *c.ScoreB && !legacyTieBreak {
		return OutcomeDraw
	}
	return OutcomeB
}

// CountableContests filters a contest list down to the countable ones
func CountableContests(contests []Contest) []Contest {
	countable := make([]Contest, 0, len(contests))
	for _, c := range contests {
		if c.IsCountable() {
			countable = append(countable, c)
		}
	}
	return countable
}

// maxExactFloat is the largest magnitude below which every integer is exact in a float64
const maxExactFloat = 1 << 53

// CanonicalID normalizes a provider or pick-document identifier to its string form.
// Integers become their decimal text ("401547" for 401547, "401547.0" or "4.01547e5").
// Numeric text too large for an int64, or an exponent form beyond 2^53, is kept
// verbatim so distinct ids never collapse onto one key.
func CanonicalID(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		s := strings.TrimSpace(id)
		if s == "" {
			return "", false
		}
		return canonicalText(s), true
	case int:
		return strconv.Itoa(id), true
	case int32:
		return strconv.FormatInt(int64(id), 10), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case float64:
		if id != math.Trunc(id) || math.IsInf(id, 0) || math.IsNaN(id) {
			return "", false
		}
		if id == 0 {
			return "0", true
		}
		return strconv.FormatFloat(id, 'f', 0, 64), true
	}
	return "", false
}

func canonicalText(s string) string {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if whole, frac, ok := strings.Cut(s, "."); ok && isDigits(strings.TrimLeft(whole, "+-")) && strings.Trim(frac, "0") == "" {
		if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}
		return whole
	}
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil && f == math.Trunc(f) && math.Abs(f) <= maxExactFloat {
			if f == 0 {
				return "0"
			}
			return strconv.FormatFloat(f, 'f', 0, 64)
		}
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseScore converts a provider score value into an int; missing or
// non-numeric scores yield nil.
func ParseScore(raw string) *int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
