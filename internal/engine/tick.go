package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotConverged is returned when the step cap is reached before every
// prospect joined. The accompanying Result is still complete.
var ErrNotConverged = errors.New("simulation did not converge")

// Engine drives a Simulation forward until saturation.
type Engine struct {
	Tick        uint64 // Last completed tick
	MaxSteps    uint64 // 0 = unbounded
	ReportEvery uint64 // Progress log interval in ticks, 0 = never

	// OnTick is called after every completed tick.
	OnTick func(rec TickRecord) error
}

// Result summarises a finished (or capped) run.
type Result struct {
	Steps      uint64 `json:"steps"`
	Converged  bool   `json:"converged"`
	NewMembers int    `json:"new_members"`
	Attempts   int    `json:"attempts"`
}

// NewEngine creates an engine with the given step cap.
func NewEngine(maxSteps int) *Engine {
	e := &Engine{ReportEvery: 10}
	if maxSteps > 0 {
		e.MaxSteps = uint64(maxSteps)
	}
	return e
}

// Run ticks sim until every prospect has joined, the step cap is hit, or
// ctx is cancelled. Cancellation is only observed between ticks.
func (e *Engine) Run(ctx context.Context, sim *Simulation) (Result, error) {
	slog.Info("simulation engine started", "tick", e.Tick, "max_steps", e.MaxSteps)

	for !sim.Saturated() {
		if e.MaxSteps > 0 && e.Tick >= e.MaxSteps {
			res := e.result(sim)
			slog.Warn("step cap reached before saturation",
				"steps", res.Steps,
				"new_members", res.NewMembers,
				"prospects", sim.NumProspects,
			)
			return res, fmt.Errorf("%d/%d joined after %d steps: %w",
				res.NewMembers, sim.NumProspects, res.Steps, ErrNotConverged)
		}
		if err := ctx.Err(); err != nil {
			return e.result(sim), err
		}

		e.Tick++
		rec, err := sim.Tick(e.Tick)
		if err != nil {
			return e.result(sim), err
		}
		if e.OnTick != nil {
			if err := e.OnTick(rec); err != nil {
				return e.result(sim), fmt.Errorf("tick %d callback: %w", e.Tick, err)
			}
		}
		if e.ReportEvery > 0 && e.Tick%e.ReportEvery == 0 {
			e.report(sim, rec)
		}
	}

	res := e.result(sim)
	slog.Info("simulation converged",
		"steps", res.Steps,
		"new_members", res.NewMembers,
		"attempts", res.Attempts,
		"outreach_conversions", sim.Stats.OutreachConversions,
		"peer_conversions", sim.Stats.PeerConversions,
	)
	return res, nil
}

func (e *Engine) result(sim *Simulation) Result {
	return Result{
		Steps:      e.Tick,
		Converged:  sim.Saturated(),
		NewMembers: sim.NewMembersCount,
		Attempts:   sim.Attempts,
	}
}

func (e *Engine) report(sim *Simulation, rec TickRecord) {
	slog.Info("progress report",
		"tick", rec.Tick,
		"new_members", rec.NewMembers,
		"prospects", sim.NumProspects,
		"growth_pct", fmt.Sprintf("%.3f", rec.GrowthPercentage),
		"outreach_total", sim.Stats.OutreachConversions,
		"peer_total", sim.Stats.PeerConversions,
		"attempts", sim.Attempts,
	)
}
