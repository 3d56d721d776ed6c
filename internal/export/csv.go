// Package export turns stored runs into files for analysis: CSV tables and
// PNG charts.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/talgya/community-sim/internal/agents"
	"github.com/talgya/community-sim/internal/engine"
)

// Iteration is one run's cumulative series as it appears in a batch table.
type Iteration struct {
	RunID  string
	Series []engine.TickRecord
}

// WriteSeriesCSV writes runs side by side: a step column and a new-members
// column per iteration, numbered from 1. Shorter runs leave their cells
// empty once they have converged.
func WriteSeriesCSV(w io.Writer, runs []Iteration) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, 2*len(runs))
	longest := 0
	for i, r := range runs {
		header = append(header,
			fmt.Sprintf("Step Number Iteration #%d", i+1),
			fmt.Sprintf("New Members Iteration #%d", i+1),
		)
		if len(r.Series) > longest {
			longest = len(r.Series)
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for step := 0; step < longest; step++ {
		for i, r := range runs {
			if step < len(r.Series) {
				rec := r.Series[step]
				row[2*i] = strconv.FormatUint(rec.Tick, 10)
				row[2*i+1] = strconv.Itoa(rec.NewMembers)
			} else {
				row[2*i], row[2*i+1] = "", ""
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTypologyCSV writes the member typology table.
func WriteTypologyCSV(w io.Writer, rows []agents.TypologyRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"AgentID", "Typology"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{strconv.FormatUint(uint64(r.ID), 10), r.Typology}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
