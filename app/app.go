// Package app wires configuration, storage and services into the pieces the
// server and the operator CLI share.
package app

import (
	"context"
	"fmt"

	"nfl-pool/config"
	"nfl-pool/database"
	"nfl-pool/logging"
	"nfl-pool/services"
)

// App holds the connected database and every service built on it
type App struct {
	Config *config.Config

	DB           *database.MongoDB
	Picks        *database.MongoPickRepository
	PickWriter   *database.MongoPickWriter
	Recaps       *database.MongoRecapRepository
	Participants *database.MongoParticipantRepository
	Settings     *database.MongoSettingsRepository

	Metrics     *services.Metrics
	ESPN        *services.ESPNService
	Gateway     services.GameResultsGateway
	Calendar    *services.Calendar
	RecapSvc    *services.RecapService
	Driver      *services.BatchDriver
	Leaderboard *services.LeaderboardService
	Favorites   *services.FavoritesGenerator
}

// New connects to MongoDB and builds the service graph
func New(cfg *config.Config) (*App, error) {
	db, err := database.NewMongoConnection(cfg.ToDatabaseConfig())
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:       cfg,
		DB:           db,
		Picks:        database.NewMongoPickRepository(db),
		PickWriter:   database.NewMongoPickWriter(db),
		Recaps:       database.NewMongoRecapRepository(db),
		Participants: database.NewMongoParticipantRepository(db),
		Settings:     database.NewMongoSettingsRepository(db),
		Metrics:      services.NewMetrics(),
	}

	gatewayCfg := cfg.ToGatewayConfig()
	a.ESPN = services.NewESPNService(gatewayCfg)
	a.Gateway = services.NewRetryingGateway(a.ESPN, gatewayCfg.Retry, a.Metrics)

	a.Calendar = services.NewCalendar(a.Gateway)
	a.RecapSvc = services.NewRecapService(a.Gateway, a.Picks, a.Recaps, a.Participants, a.Metrics)
	a.Driver = services.NewBatchDriver(a.Calendar, a.RecapSvc, a.Settings, a.Metrics,
		cfg.App.CurrentSeason, cfg.App.InterWeekDelay)
	a.Leaderboard = services.NewLeaderboardService(a.Recaps, a.Participants, a.Metrics)
	if cfg.App.FavoritesEnabled {
		a.Favorites = services.NewFavoritesGenerator(a.Gateway, a.Picks, a.PickWriter)
	}

	return a, nil
}

// SeedSettings stores the pool settings file's seasons that have nothing stored yet
func (a *App) SeedSettings(ctx context.Context) error {
	path := a.Config.App.PoolSettingsFile
	if path == "" {
		return nil
	}

	entries, err := config.LoadPoolSettingsFile(path)
	if err != nil {
		return err
	}
	seeded, err := a.Settings.SeedSettings(ctx, entries)
	if err != nil {
		return fmt.Errorf("failed to seed pool settings: %w", err)
	}
	if len(seeded) > 0 {
		logging.Infof("Seeded pool settings for seasons %v from %s", seeded, path)
	}
	return nil
}

// Close releases the database connection
func (a *App) Close() error {
	return a.DB.Close()
}
