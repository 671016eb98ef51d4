package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Phase represents a part of the NFL season
type Phase string

const (
	PhasePreseason  Phase = "preseason"
	PhaseRegular    Phase = "regular"
	PhasePostseason Phase = "postseason"
	PhaseExhibition Phase = "exhibition" // pro bowl week
)

// Regular season weeks are numbered 1..MaxRegularWeek
const MaxRegularWeek = 18

// Canonical postseason round labels
const (
	RoundWildCard   = "wild card"
	RoundDivisional = "divisional"
	RoundConference = "conference"
	RoundSuperBowl  = "super bowl"
)

// postseasonRounds lists rounds in playing order with the provider's week ordinal
var postseasonRounds = []struct {
	label   string
	ordinal int
}{
	{RoundWildCard, 1},
	{RoundDivisional, 2},
	{RoundConference, 3},
	{RoundSuperBowl, 5},
}

const (
	preseasonPrefix = "preseason-"
	proBowlPrefix   = "pro-bowl-"
	regularPrefix   = "week-"
)

// NormalizeRoundLabel maps provider round labels ("Wild Card", "WILD-CARD",
// "Conference Championship", "Super Bowl LIX", ...) to a canonical round.
func NormalizeRoundLabel(label string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return ' '
	}, label)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	compact := strings.ReplaceAll(cleaned, " ", "")

	switch {
	case strings.Contains(compact, "wildcard"):
		return RoundWildCard, nil
	case strings.Contains(compact, "divisional"):
		return RoundDivisional, nil
	case strings.Contains(compact, "superbowl"):
		return RoundSuperBowl, nil
	case strings.Contains(compact, "conference"), strings.Contains(compact, "championship"):
		return RoundConference, nil
	}
	return "", fmt.Errorf("unknown postseason round %q", label)
}

// RoundOrdinal returns the provider week ordinal of a canonical round label
func RoundOrdinal(round string) int {
	for _, r := range postseasonRounds {
		if r.label == round {
			return r.ordinal
		}
	}
	return 0
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ToWeekKey builds the canonical week key for a phase, ordinal and optional round label.
// The ordinal sign is dropped because the feed has emitted negative ordinals.
func ToWeekKey(phase Phase, ordinal int, roundLabel string) (string, error) {
	n := absInt(ordinal)
	switch phase {
	case PhaseRegular:
		if n < 1 || n > MaxRegularWeek {
			return "", fmt.Errorf("regular season week %d out of range 1-%d", ordinal, MaxRegularWeek)
		}
		return regularPrefix + strconv.Itoa(n), nil
	case PhasePreseason:
		return preseasonPrefix + strconv.Itoa(n), nil
	case PhaseExhibition:
		return proBowlPrefix + strconv.Itoa(n), nil
	case PhasePostseason:
		round, err := NormalizeRoundLabel(roundLabel)
		if err != nil {
			return "", err
		}
		return strings.ReplaceAll(round, " ", "-"), nil
	}
	return "", fmt.Errorf("unknown season phase %q", phase)
}

// WeekKeyParts is the decoded form of a week key
type WeekKeyParts struct {
	Phase      Phase
	Ordinal    int
	RoundLabel string
}

// ParseWeekKey is the inverse of ToWeekKey. Postseason keys report the
// provider ordinal of their round.
func ParseWeekKey(key string) (WeekKeyParts, error) {
	parseOrdinal := func(prefix string) (int, error) {
		text := strings.TrimPrefix(key, prefix)
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 || strconv.Itoa(n) != text {
			return 0, fmt.Errorf("malformed week key %q", key)
		}
		return n, nil
	}

	switch {
	case strings.HasPrefix(key, regularPrefix):
		n, err := parseOrdinal(regularPrefix)
		if err != nil {
			return WeekKeyParts{}, err
		}
		if n < 1 || n > MaxRegularWeek {
			return WeekKeyParts{}, fmt.Errorf("regular season week key %q out of range", key)
		}
		return WeekKeyParts{Phase: PhaseRegular, Ordinal: n}, nil
	case strings.HasPrefix(key, preseasonPrefix):
		n, err := parseOrdinal(preseasonPrefix)
		if err != nil {
			return WeekKeyParts{}, err
		}
		return WeekKeyParts{Phase: PhasePreseason, Ordinal: n}, nil
	case strings.HasPrefix(key, proBowlPrefix):
		n, err := parseOrdinal(proBowlPrefix)
		if err != nil {
			return WeekKeyParts{}, err
		}
		return WeekKeyParts{Phase: PhaseExhibition, Ordinal: n}, nil
	}

	for _, r := range postseasonRounds {
		if key == strings.ReplaceAll(r.label, " ", "-") {
			return WeekKeyParts{Phase: PhasePostseason, Ordinal: r.ordinal, RoundLabel: r.label}, nil
		}
	}
	return WeekKeyParts{}, fmt.Errorf("malformed week key %q", key)
}

// IsScorableKey reports whether a week key takes part in scoring and standings
func IsScorableKey(key string) bool {
	parts, err := ParseWeekKey(key)
	if err != nil {
		return false
	}
	return parts.Phase == PhaseRegular || parts.Phase == PhasePostseason
}

// WeekID joins a season and week key into the recap identifier
func WeekID(season int, weekKey string) string {
	return fmt.Sprintf("%d_%s", season, weekKey)
}

// ParseWeekID splits a recap identifier into season and week key
func ParseWeekID(weekID string) (int, string, error) {
	idx := strings.Index(weekID, "_")
	if idx <= 0 || idx == len(weekID)-1 {
		return 0, "", fmt.Errorf("malformed week id %q", weekID)
	}
	season, err := strconv.Atoi(weekID[:idx])
	if err != nil {
		return 0, "", fmt.Errorf("malformed week id %q: %w", weekID, err)
	}
	key := weekID[idx+1:]
	if _, err := ParseWeekKey(key); err != nil {
		return 0, "", err
	}
	return season, key, nil
}

// WeekOrder sorts week keys in playing order: preseason, regular, postseason
// rounds with the pro bowl between conference and super bowl.
func WeekOrder(key string) int {
	parts, err := ParseWeekKey(key)
	if err != nil {
		return 1 << 20
	}
	switch parts.Phase {
	case PhasePreseason:
		return parts.Ordinal
	case PhaseRegular:
		return 100 + parts.Ordinal
	case PhaseExhibition:
		return 200 + RoundOrdinal(RoundConference)*10 + 5 + parts.Ordinal
	}
	return 200 + parts.Ordinal*10
}

// ScheduleWeek is one week of a season's calendar as reported by the provider
type ScheduleWeek struct {
	Season     int       `json:"season"`
	Phase      Phase     `json:"phase"`
	Ordinal    int       `json:"ordinal"`
	RoundLabel string    `json:"roundLabel,omitempty"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
}

// Key returns the canonical week key
func (w ScheduleWeek) Key() (string, error) {
	return ToWeekKey(w.Phase, w.Ordinal, w.RoundLabel)
}

// ID returns the recap identifier of the week
func (w ScheduleWeek) ID() (string, error) {
	key, err := w.Key()
	if err != nil {
		return "", err
	}
	return WeekID(w.Season, key), nil
}

// IsScorable reports whether the week counts toward scoring and standings
func (w ScheduleWeek) IsScorable() bool {
	return w.Phase == PhaseRegular || w.Phase == PhasePostseason
}

// HasEnded reports whether the week is over at the given instant
func (w ScheduleWeek) HasEnded(now time.Time) bool {
	return !w.EndDate.IsZero() && now.After(w.EndDate)
}

// Contains reports whether the instant falls inside the week
func (w ScheduleWeek) Contains(t time.Time) bool {
	return !t.Before(w.StartDate) && t.Before(w.EndDate)
}
