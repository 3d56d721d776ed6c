package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/community-sim/internal/config"
	"github.com/talgya/community-sim/internal/persistence"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			limit, _ := cmd.Flags().GetInt("limit")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if path == "" {
				cfg, err := config.Load("")
				if err != nil {
					return err
				}
				path = cfg.Storage.DBPath
			}

			db, err := persistence.Open(path)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			w := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(w).Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(w, "No runs stored.")
				return nil
			}
			for _, r := range runs {
				status := "converged"
				if !r.Converged {
					status = "capped"
				}
				fmt.Fprintf(w, "%s  %-10s seed=%-20d %s steps, %d/%d joined, %s (%s)\n",
					r.ID, r.Scenario, r.Seed, humanize.Comma(int64(r.Steps)),
					r.NewMembers, r.NumProspects, status, humanize.Time(r.Created()))
			}
			return nil
		},
	}

	cmd.Flags().String("db", "", "SQLite run store path (defaults to the configured one)")
	cmd.Flags().Int("limit", 20, "Maximum runs to list, 0 for all")
	return cmd
}
