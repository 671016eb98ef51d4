package interfaces

import (
	"context"

	"nfl-pool/models"
	"nfl-pool/services"
)

// RecapTrigger defines the recap operations exposed to handlers and the CLI
type RecapTrigger interface {
	Trigger(ctx context.Context, req services.TriggerRequest) (*services.RecapResult, error)
	RunSeason(ctx context.Context, season int, mode services.Mode, force bool) (*services.BatchSummary, error)
	ResolveActiveWeek(ctx context.Context, season int) (*services.ActiveWeek, error)
	DefaultSeason() int
}

// LeaderboardProvider builds season standings for an already resolved active week
type LeaderboardProvider interface {
	GetLeaderboard(ctx context.Context, active *services.ActiveWeek) (*models.Leaderboard, error)
}

// FavoritesWriter generates the synthetic participant's picks for a week
type FavoritesWriter interface {
	Generate(ctx context.Context, week models.ScheduleWeek, settings models.PoolSettings, force bool) (int, error)
}

// GatewayHealth reports whether the results provider is reachable
type GatewayHealth interface {
	HealthCheck(ctx context.Context) bool
}

// DatabaseHealth reports whether the database is reachable
type DatabaseHealth interface {
	Ping(ctx context.Context) error
}
