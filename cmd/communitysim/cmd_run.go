package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/community-sim/internal/config"
	"github.com/talgya/community-sim/internal/engine"
	"github.com/talgya/community-sim/internal/entropy"
	"github.com/talgya/community-sim/internal/persistence"
)

type runOutput struct {
	RunID   string        `json:"run_id"`
	TickLog string        `json:"tick_log,omitempty"`
	Report  engine.Report `json:"report"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one model until every prospect has joined",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := runConfig(cmd)
			if err != nil {
				return err
			}
			setupLogging(cmd.ErrOrStderr(), cfg.Logging.Level)

			seed, fresh := entropy.Resolve(cfg.Seed)
			if fresh {
				slog.Info("drew fresh seed", "seed", seed)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out, runErr := execute(ctx, cfg, seed)
			if out == nil {
				return runErr
			}
			if cfg.Storage.DBPath != "" {
				if err := store(cfg, out); err != nil {
					return err
				}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else {
				printSummary(cmd, out)
			}
			return runErr
		},
	}

	cmd.Flags().String("config", "", "YAML config file (defaults apply when omitted)")
	cmd.Flags().Int64("seed", 0, "Random seed, 0 draws a fresh one")
	cmd.Flags().String("scenario", "", "Social environment: Familiar, Fragmented or Unified")
	cmd.Flags().Int("max-steps", 0, "Step cap, 0 keeps the configured cap")
	cmd.Flags().String("db", "", "SQLite run store path")
	cmd.Flags().Bool("no-store", false, "Do not persist the run")
	cmd.Flags().String("tick-log", "", "Directory for the compressed per-tick log")
	return cmd
}

// runConfig loads the config file and layers explicitly set flags on top.
func runConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("scenario") {
		cfg.Scenario, _ = flags.GetString("scenario")
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps, _ = flags.GetInt("max-steps")
	}
	if flags.Changed("db") {
		cfg.Storage.DBPath, _ = flags.GetString("db")
	}
	if noStore, _ := flags.GetBool("no-store"); noStore {
		cfg.Storage.DBPath = ""
	}
	if flags.Changed("tick-log") {
		cfg.Storage.TickLogDir, _ = flags.GetString("tick-log")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// execute builds and runs one model, writing the tick log when one is
// configured. A capped run still returns its output alongside
// ErrNotConverged.
func execute(ctx context.Context, cfg *config.Config, seed int64) (*runOutput, error) {
	sim, err := engine.NewSimulation(cfg, seed)
	if err != nil {
		return nil, err
	}

	out := &runOutput{RunID: persistence.NewRunID()}
	eng := engine.NewEngine(cfg.MaxSteps)
	eng.ReportEvery = uint64(cfg.ReportEvery)

	if cfg.Storage.TickLogDir != "" {
		tl, err := persistence.NewTickLogger(cfg.Storage.TickLogDir, out.RunID)
		if err != nil {
			return nil, err
		}
		defer tl.Close()
		eng.OnTick = tl.WriteTick
		out.TickLog = tl.Path()
	}

	res, runErr := eng.Run(ctx, sim)
	if runErr != nil && !errors.Is(runErr, engine.ErrNotConverged) {
		return nil, runErr
	}
	out.Report = sim.Report(res)
	return out, runErr
}

func store(cfg *config.Config, out *runOutput) error {
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

	if err := db.SaveRun(out.RunID, cfg, out.Report); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if err := db.SaveMeta("last_run", out.RunID); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

func printSummary(cmd *cobra.Command, out *runOutput) {
	w := cmd.OutOrStdout()
	rep := out.Report
	status := "converged"
	if !rep.Result.Converged {
		status = "stopped at step cap"
	}

	fmt.Fprintf(w, "Run %s (%s, seed %d): %s after %s steps\n",
		out.RunID, rep.Scenario, rep.Seed, status, humanize.Comma(int64(rep.Result.Steps)))
	fmt.Fprintf(w, "  new members: %s of %s prospects (%s outreach, %s peer)\n",
		humanize.Comma(int64(rep.Result.NewMembers)), humanize.Comma(int64(rep.NumProspects)),
		humanize.Comma(int64(rep.Stats.OutreachConversions)), humanize.Comma(int64(rep.Stats.PeerConversions)))
	fmt.Fprintf(w, "  outreach attempts: %s\n", humanize.Comma(int64(rep.Result.Attempts)))
	if n := len(rep.Ticks); n > 0 {
		fmt.Fprintf(w, "  final growth: %.3f%% of %d members\n", rep.Ticks[n-1].GrowthPercentage, rep.NumMembers)
	}
	for _, g := range rep.Groups {
		fmt.Fprintf(w, "  %-15s %4d joined of %4d\n", g.Group, g.Joined, g.Size)
	}
	if out.TickLog != "" {
		fmt.Fprintf(w, "  tick log: %s\n", out.TickLog)
	}
}
