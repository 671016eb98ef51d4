// Command poolctl is the operator CLI for the recap engine: it triggers
// recaps, prints standings and manages participants and pool settings.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nfl-pool/app"
	"nfl-pool/config"
	"nfl-pool/database"
	"nfl-pool/logging"
	"nfl-pool/middleware"
	"nfl-pool/models"
	"nfl-pool/services"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// withApp loads configuration, connects and runs fn
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Configure(cfg.ToLoggingConfig())

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "poolctl",
		Short:        "Operate the NFL pool recap engine",
		SilenceUsage: true,
	}
	root.AddCommand(
		newRecapCmd(),
		newLeaderboardCmd(),
		newFavoritesCmd(),
		newParticipantsCmd(),
		newSettingsCmd(),
		newTokenCmd(),
		newSnapshotCmd(),
	)
	return root
}

func newRecapCmd() *cobra.Command {
	recap := &cobra.Command{Use: "recap", Short: "Compute week recaps"}

	var force bool
	var season, offset int
	week := &cobra.Command{
		Use:   "week [weekId]",
		Short: "Recap one week by id, or by --offset from the active week",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := services.TriggerRequest{Season: season, Force: force}
			if len(args) == 1 {
				req.WeekID = &args[0]
			}
			if cmd.Flags().Changed("offset") {
				req.WeekOffset = &offset
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Driver.Trigger(ctx, req)
				if result != nil {
					if perr := printJSON(cmd, result); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}
	week.Flags().BoolVar(&force, "force", false, "recompute an existing recap")
	week.Flags().IntVar(&offset, "offset", 0, "week offset from the active week (0 = active, -1 = previous)")
	week.Flags().IntVar(&season, "season", 0, "season the offset applies to (default: current season)")

	var seasonForce, scheduled bool
	var batchSeason int
	seasonCmd := &cobra.Command{
		Use:   "season",
		Short: "Recap every started week of a season",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				s := batchSeason
				if s == 0 {
					s = a.Driver.DefaultSeason()
				}
				mode := services.ModeManual
				if scheduled {
					mode = services.ModeScheduled
				}
				summary, err := a.Driver.RunSeason(ctx, s, mode, seasonForce)
				if err != nil {
					return err
				}
				return printJSON(cmd, summary)
			})
		},
	}
	seasonCmd.Flags().IntVar(&batchSeason, "season", 0, "season to recap (default: current season)")
	seasonCmd.Flags().BoolVar(&seasonForce, "force", false, "recompute existing recaps")
	seasonCmd.Flags().BoolVar(&scheduled, "scheduled", false, "apply the scheduled staleness rule")

	del := &cobra.Command{
		Use:   "delete <weekId>",
		Short: "Delete a stored recap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := models.ParseWeekID(args[0]); err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Recaps.DeleteRecap(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}

	recap.AddCommand(week, seasonCmd, del)
	return recap
}

func newLeaderboardCmd() *cobra.Command {
	var season int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print season standings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				s := season
				if s == 0 {
					s = a.Driver.DefaultSeason()
				}
				active, err := a.Driver.ResolveActiveWeek(ctx, s)
				if err != nil {
					return err
				}
				board, err := a.Leaderboard.GetLeaderboard(ctx, active)
				if err != nil {
					return err
				}
				return printJSON(cmd, board)
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "season (default: current season)")
	return cmd
}

func newFavoritesCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "favorites [weekId]",
		Short: "Write the always-favorite participant's picks (default: active week)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				gen := a.Favorites
				if gen == nil {
					gen = services.NewFavoritesGenerator(a.Gateway, a.Picks, a.PickWriter)
				}

				season := a.Driver.DefaultSeason()
				var key string
				if len(args) == 1 {
					s, k, err := models.ParseWeekID(args[0])
					if err != nil {
						return err
					}
					season, key = s, k
				}

				active, err := a.Driver.ResolveActiveWeek(ctx, season)
				if err != nil {
					return err
				}
				week := active.Week
				if key != "" {
					found, ok := active.Find(key)
					if !ok {
						return fmt.Errorf("%w: %s", services.ErrWeekNotFound, args[0])
					}
					week = &found
				}
				if week == nil {
					return fmt.Errorf("no active week in season %d, name one", season)
				}

				settings, err := a.Settings.LoadSettings(ctx, season)
				if err != nil {
					return err
				}
				n, err := gen.Generate(ctx, *week, settings, force)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d picks\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace existing picks")
	return cmd
}

func newParticipantsCmd() *cobra.Command {
	participants := &cobra.Command{Use: "participants", Short: "Manage pool participants"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				ps, err := a.Participants.ListParticipants(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, ps)
			})
		},
	}

	var name string
	var inactive, synthetic bool
	add := &cobra.Command{
		Use:   "add <id>",
		Short: "Add or update a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := models.Participant{ID: args[0], Name: name, Active: !inactive, Synthetic: synthetic}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Participants.UpsertParticipant(ctx, p)
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().BoolVar(&inactive, "inactive", false, "mark the participant inactive")
	add.Flags().BoolVar(&synthetic, "synthetic", false, "mark as the always-favorite participant")

	participants.AddCommand(list, add)
	return participants
}

func newSettingsCmd() *cobra.Command {
	settings := &cobra.Command{Use: "settings", Short: "Manage per-season pool settings"}

	var season int
	show := &cobra.Command{
		Use:   "show",
		Short: "Print a season's settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				s := season
				if s == 0 {
					s = a.Driver.DefaultSeason()
				}
				st, err := a.Settings.LoadSettings(ctx, s)
				if err != nil {
					return err
				}
				return printJSON(cmd, st)
			})
		},
	}
	show.Flags().IntVar(&season, "season", 0, "season (default: current season)")

	var file string
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Store settings from a YAML file for seasons that have none",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if file != "" {
					a.Config.App.PoolSettingsFile = file
				}
				if a.Config.App.PoolSettingsFile == "" {
					return fmt.Errorf("no settings file given (--file or POOL_SETTINGS_FILE)")
				}
				return a.SeedSettings(ctx)
			})
		},
	}
	seed.Flags().StringVar(&file, "file", "", "pool settings YAML file")

	settings.AddCommand(show, seed)
	return settings
}

func newTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue an admin token for the recap trigger API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := middleware.NewAdminAuth(cfg.Auth.JWTSecret, "").IssueToken(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func newSnapshotCmd() *cobra.Command {
	snapshot := &cobra.Command{Use: "snapshot", Short: "Save and restore recap engine collections"}

	create := &cobra.Command{
		Use:   "create",
		Short: "Write a snapshot and prune old ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				dir := a.Config.App.SnapshotDir
				info, err := database.NewSnapshotter(a.DB, dir).Create(ctx, time.Now())
				if err != nil {
					return err
				}
				removed, err := database.PruneSnapshots(dir, a.Config.App.SnapshotKeep, time.Now())
				if err != nil {
					logging.Warnf("Pruning snapshots failed: %v", err)
				}
				for _, name := range removed {
					logging.Infof("Removed old snapshot %s", name)
				}
				return printJSON(cmd, info)
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			snaps, err := database.ListSnapshots(cfg.App.SnapshotDir)
			if err != nil {
				return err
			}
			return printJSON(cmd, snaps)
		},
	}

	restore := &cobra.Command{
		Use:   "restore <name>",
		Short: "Replace recaps, settings and participants with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return database.NewSnapshotter(a.DB, a.Config.App.SnapshotDir).Restore(ctx, args[0])
			})
		},
	}

	snapshot.AddCommand(create, list, restore)
	return snapshot
}
