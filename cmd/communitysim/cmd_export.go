package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/community-sim/internal/config"
	"github.com/talgya/community-sim/internal/export"
	"github.com/talgya/community-sim/internal/persistence"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored runs as CSV tables and PNG charts",
		Long: `export reads runs from the store and writes the requested files.

Without --run it exports the most recent run. Several --run flags export a
batch side by side, in the order given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("db")
			ids, _ := cmd.Flags().GetStringSlice("run")
			csvPath, _ := cmd.Flags().GetString("csv")
			typologyPath, _ := cmd.Flags().GetString("typology-csv")
			plotPath, _ := cmd.Flags().GetString("plot")
			histPath, _ := cmd.Flags().GetString("histogram")

			if csvPath == "" && typologyPath == "" && plotPath == "" && histPath == "" {
				return fmt.Errorf("nothing to export: set --csv, --typology-csv, --plot or --histogram")
			}
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

			if len(ids) == 0 {
				last, err := db.GetMeta("last_run")
				if err != nil {
					return fmt.Errorf("no run given and no last run stored: %w", err)
				}
				ids = []string{last}
			}

			runs, err := export.Iterations(ids, db.LoadSeries)
			if err != nil {
				return err
			}
			first, err := db.GetRun(ids[0])
			if err != nil {
				return fmt.Errorf("get run %s: %w", ids[0], err)
			}

			w := cmd.OutOrStdout()
			if csvPath != "" {
				if err := writeFile(csvPath, func(f io.Writer) error { return export.WriteSeriesCSV(f, runs) }); err != nil {
					return err
				}
				fmt.Fprintf(w, "Simulation results saved to %s\n", csvPath)
			}
			if plotPath != "" {
				if err := writeFile(plotPath, func(f io.Writer) error {
					return export.PlotNewMembers(f, runs, first.NumProspects)
				}); err != nil {
					return err
				}
				fmt.Fprintf(w, "New member chart saved to %s\n", plotPath)
			}
			if typologyPath != "" || histPath != "" {
				rows, err := db.LoadTypologies(ids[0])
				if err != nil {
					return fmt.Errorf("load typologies: %w", err)
				}
				if typologyPath != "" {
					if err := writeFile(typologyPath, func(f io.Writer) error { return export.WriteTypologyCSV(f, rows) }); err != nil {
						return err
					}
					fmt.Fprintf(w, "Typology table saved to %s\n", typologyPath)
				}
				if histPath != "" {
					if err := writeFile(histPath, func(f io.Writer) error { return export.PlotTypologyHistogram(f, rows) }); err != nil {
						return err
					}
					fmt.Fprintf(w, "Typology histogram saved to %s\n", histPath)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("db", "", "SQLite run store path (defaults to the configured one)")
	cmd.Flags().StringSlice("run", nil, "Run id to export, repeatable")
	cmd.Flags().String("csv", "", "Write the new-member series of all runs as CSV")
	cmd.Flags().String("typology-csv", "", "Write the member typology table of the first run as CSV")
	cmd.Flags().String("plot", "", "Write the new-member curves as PNG")
	cmd.Flags().String("histogram", "", "Write the typology histogram of the first run as PNG")
	return cmd
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
