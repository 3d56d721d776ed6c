package persistence

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/talgya/community-sim/internal/config"
	"github.com/talgya/community-sim/internal/engine"
)

func finishedRun(t *testing.T, seed int64) (*config.Config, engine.Report) {
	t.Helper()
	cfg := config.Default()
	cfg.Width = 12
	cfg.Height = 12
	cfg.NumMembers = 20
	cfg.NumProspects = 25
	cfg.Scenario = "Fragmented"
	sim, err := engine.NewSimulation(cfg, seed)
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	res, err := engine.NewEngine(cfg.MaxSteps).Run(context.Background(), sim)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return cfg, sim.Report(res)
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndLoadRun(t *testing.T) {
	db := openTestDB(t)
	cfg, rep := finishedRun(t, 17)
	id := NewRunID()

	if err := db.SaveRun(id, cfg, rep); err != nil {
		t.Fatalf("save run: %v", err)
	}

	run, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Seed != 17 || run.Scenario != "Fragmented" || !run.Converged {
		t.Errorf("run summary = %+v", run)
	}
	if run.Steps != rep.Result.Steps || run.NewMembers != rep.NumProspects {
		t.Errorf("steps/new members = %d/%d, want %d/%d", run.Steps, run.NewMembers, rep.Result.Steps, rep.NumProspects)
	}

	series, err := db.LoadSeries(id)
	if err != nil {
		t.Fatalf("load series: %v", err)
	}
	if len(series) != len(rep.Ticks) {
		t.Fatalf("series length %d, want %d", len(series), len(rep.Ticks))
	}
	for i, rec := range series {
		if rec != rep.Ticks[i] {
			t.Fatalf("step %d: got %+v, want %+v", i, rec, rep.Ticks[i])
		}
	}

	rows, err := db.LoadTypologies(id)
	if err != nil {
		t.Fatalf("load typologies: %v", err)
	}
	if len(rows) != cfg.NumMembers {
		t.Fatalf("typology rows %d, want %d", len(rows), cfg.NumMembers)
	}
	for i, row := range rows {
		if row != rep.Typologies[i] {
			t.Errorf("row %d: got %+v, want %+v", i, row, rep.Typologies[i])
		}
	}

	groups, err := db.LoadGroups(id)
	if err != nil {
		t.Fatalf("load groups: %v", err)
	}
	if len(groups) != 5 || groups[0].Group != "Innovator" {
		t.Errorf("groups = %+v", groups)
	}
}

func TestSaveRunTwiceReplaces(t *testing.T) {
	db := openTestDB(t)
	cfg, rep := finishedRun(t, 3)
	id := NewRunID()
	for i := 0; i < 2; i++ {
		if err := db.SaveRun(id, cfg, rep); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	series, err := db.LoadSeries(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != len(rep.Ticks) {
		t.Errorf("series length %d after resave, want %d", len(series), len(rep.Ticks))
	}
	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("listed %d runs, want 1", len(runs))
	}
	if n, err := db.CountRuns(); err != nil || n != 1 {
		t.Errorf("count runs = %d, %v; want 1", n, err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	var ids []string
	for _, seed := range []int64{1, 2, 3} {
		cfg, rep := finishedRun(t, seed)
		id := NewRunID()
		if err := db.SaveRun(id, cfg, rep); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("listed %d runs, want 2", len(runs))
	}
	n, err := db.CountRuns()
	if err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if n != 3 {
		t.Errorf("counted %d runs, want 3", n)
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("order = %s, %s; want %s, %s", runs[0].ID, runs[1].ID, ids[2], ids[1])
	}
}

func TestGetRunMissing(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetRun("nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveMeta("last_run", "a"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveMeta("last_run", "b"); err != nil {
		t.Fatal(err)
	}
	v, err := db.GetMeta("last_run")
	if err != nil {
		t.Fatal(err)
	}
	if v != "b" {
		t.Errorf("meta = %q, want b", v)
	}
}

func TestTickLogRoundTrip(t *testing.T) {
	_, rep := finishedRun(t, 9)
	dir := t.TempDir()
	id := NewRunID()

	l, err := NewTickLogger(filepath.Join(dir, "ticks"), id)
	if err != nil {
		t.Fatalf("new tick logger: %v", err)
	}
	for _, rec := range rep.Ticks {
		if err := l.WriteTick(rec); err != nil {
			t.Fatalf("write tick %d: %v", rec.Tick, err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := l.WriteTick(rep.Ticks[0]); err == nil {
		t.Error("write after close should fail")
	}

	got, err := ReadTickLog(TickLogPath(filepath.Join(dir, "ticks"), id))
	if err != nil {
		t.Fatalf("read tick log: %v", err)
	}
	if len(got) != len(rep.Ticks) {
		t.Fatalf("read %d records, want %d", len(got), len(rep.Ticks))
	}
	for i := range got {
		if got[i] != rep.Ticks[i] {
			t.Fatalf("record %d: got %+v, want %+v", i, got[i], rep.Ticks[i])
		}
	}
}
