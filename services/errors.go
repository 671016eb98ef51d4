package services

import "errors"

var (
	// ErrUpstreamUnavailable wraps gateway failures that survived every retry
	ErrUpstreamUnavailable = errors.New("game results provider unavailable")

	// ErrOffSeason is returned by CurrentWeek when no week is in progress
	ErrOffSeason = errors.New("no active week (off-season)")

	// ErrWeekNotFound means a requested week is not on the season calendar
	ErrWeekNotFound = errors.New("week not found")

	// ErrInvalidTrigger means a trigger request named neither or both of weekId and weekOffset
	ErrInvalidTrigger = errors.New("exactly one of weekId or weekOffset is required")
)
