package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nfl-pool/app"
	"nfl-pool/config"
	"nfl-pool/handlers"
	"nfl-pool/logging"
	"nfl-pool/middleware"
	"nfl-pool/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Configure(cfg.ToLoggingConfig())
	cfg.LogConfiguration()

	a, err := app.New(cfg)
	if err != nil {
		logging.Fatalf("Database connection failed: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.SeedSettings(ctx); err != nil {
		logging.Warnf("Pool settings not seeded: %v", err)
	}

	// Start the scheduled recap batch
	var scheduler *services.RecapScheduler
	if cfg.IsSchedulerEnabled() {
		scheduler = services.NewRecapScheduler(a.Driver, a.Favorites, a.Settings, cfg.App.CurrentSeason)
		if err := scheduler.Start(cfg.App.ScheduleSpec); err != nil {
			logging.Fatalf("Failed to start recap scheduler: %v", err)
		}
	}

	auth := middleware.NewAdminAuth(cfg.Auth.JWTSecret, cfg.Auth.CronKeyHash)
	router := handlers.NewRouter(
		handlers.NewRecapHandler(a.Driver, a.Recaps, a.Leaderboard),
		handlers.NewHealthHandler(a.DB, a.ESPN),
		auth,
		a.Metrics.Gatherer(),
	)

	server := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// season batches run inside the request
		WriteTimeout: 30 * time.Minute,
	}

	go func() {
		logging.Infof("Server starting on %s", server.Addr)
		var err error
		if cfg.Server.UseTLS && !cfg.Server.BehindProxy {
			err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down...")

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Errorf("Server shutdown failed: %v", err)
	}
}
