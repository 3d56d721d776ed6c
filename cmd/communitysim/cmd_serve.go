package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/community-sim/internal/api"
	"github.com/talgya/community-sim/internal/config"
	"github.com/talgya/community-sim/internal/entropy"
	"github.com/talgya/community-sim/internal/persistence"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs over HTTP",
		Long: `serve exposes the run store as a read-only JSON API.

When COMMUNITYSIM_ADMIN_KEY is set, POST /api/v1/runs with that bearer
token starts a new run from the loaded configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			addr, _ := cmd.Flags().GetString("addr")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.Storage.DBPath, _ = cmd.Flags().GetString("db")
			}
			if cfg.Storage.DBPath == "" {
				return fmt.Errorf("serve needs a run store, set --db")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			setupLogging(cmd.ErrOrStderr(), cfg.Logging.Level)

			if dir := filepath.Dir(cfg.Storage.DBPath); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create db dir: %w", err)
				}
			}
			db, err := persistence.Open(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &api.Server{
				DB:       db,
				Addr:     addr,
				AdminKey: os.Getenv("COMMUNITYSIM_ADMIN_KEY"),
				Launch:   launcher(cfg, db),
			}
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().String("config", "", "YAML config file used as the base for launched runs")
	cmd.Flags().String("db", "", "SQLite run store path")
	cmd.Flags().String("addr", ":8080", "Listen address")
	return cmd
}

// launcher runs a model from base with the request's overrides and saves
// it to db. Capped runs are saved too.
func launcher(base *config.Config, db *persistence.DB) api.Launcher {
	return func(ctx context.Context, req api.RunRequest) (string, error) {
		cfg := *base
		if req.Scenario != "" {
			cfg.Scenario = req.Scenario
		}
		if req.MaxSteps > 0 {
			cfg.MaxSteps = req.MaxSteps
		}
		seed := req.Seed
		if seed == 0 {
			seed = cfg.Seed
		}
		seed, _ = entropy.Resolve(seed)

		out, runErr := execute(ctx, &cfg, seed)
		if out == nil {
			return "", runErr
		}
		if err := db.SaveRun(out.RunID, &cfg, out.Report); err != nil {
			return "", fmt.Errorf("save run: %w", err)
		}
		if err := db.SaveMeta("last_run", out.RunID); err != nil {
			return "", fmt.Errorf("save meta: %w", err)
		}
		return out.RunID, runErr
	}
}
