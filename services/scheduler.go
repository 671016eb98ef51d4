package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nfl-pool/logging"

	"github.com/robfig/cron/v3"
)

// RecapScheduler runs the season batch in scheduled mode on a cron spec and
// tops up the synthetic participant's picks for the active week
type RecapScheduler struct {
	driver    *BatchDriver
	favorites *FavoritesGenerator // optional
	settings  SettingsStore
	season    int
	timeout   time.Duration
	cron      *cron.Cron
	logger    *logging.Logger

	mu      sync.Mutex
	running bool
}

// NewRecapScheduler creates a scheduler for one season. favorites may be nil.
func NewRecapScheduler(driver *BatchDriver, favorites *FavoritesGenerator, settings SettingsStore, season int) *RecapScheduler {
	return &RecapScheduler{
		driver:    driver,
		favorites: favorites,
		settings:  settings,
		season:    season,
		timeout:   30 * time.Minute,
		logger:    logging.WithPrefix("RecapScheduler"),
	}
}

// Start registers the job and starts the cron loop
func (rs *RecapScheduler) Start(spec string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.running {
		rs.logger.Warn("Already running")
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, rs.RunOnce); err != nil {
		return fmt.Errorf("invalid recap schedule %q: %w", spec, err)
	}
	c.Start()

	rs.cron = c
	rs.running = true
	rs.logger.Infof("Scheduled season %d recaps on %q", rs.season, spec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish
func (rs *RecapScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.running {
		return
	}
	rs.logger.Info("Stopping...")
	<-rs.cron.Stop().Done()
	rs.running = false
}

// IsRunning reports whether the cron loop is active
func (rs *RecapScheduler) IsRunning() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.running
}

// RunOnce performs one scheduled pass
func (rs *RecapScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), rs.timeout)
	defer cancel()

	if rs.favorites != nil {
		rs.generateFavorites(ctx)
	}

	summary, err := rs.driver.RunSeason(ctx, rs.season, ModeScheduled, false)
	if err != nil {
		rs.logger.Errorf("Scheduled batch aborted: %v", err)
		return
	}
	rs.logger.Infof("Scheduled batch %s: computed=%d skipped=%d failed=%d",
		summary.RunID, summary.Computed, summary.Skipped, summary.Failed)
}

func (rs *RecapScheduler) generateFavorites(ctx context.Context) {
	settings, err := rs.settings.LoadSettings(ctx, rs.season)
	if err != nil {
		rs.logger.Warnf("Skipping favorites, settings unavailable: %v", err)
		return
	}
	active, err := rs.driver.ResolveActiveWeek(ctx, rs.season)
	if err != nil {
		rs.logger.Warnf("Skipping favorites, active week unavailable: %v", err)
		return
	}
	if active.Week == nil || !active.Week.IsScorable() {
		return
	}
	if _, err := rs.favorites.Generate(ctx, *active.Week, settings, false); err != nil {
		rs.logger.Warnf("Favorites generation failed: %v", err)
	}
}
