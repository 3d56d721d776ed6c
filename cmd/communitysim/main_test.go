package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/community-sim/internal/api"
	"github.com/talgya/community-sim/internal/config"
	"github.com/talgya/community-sim/internal/engine"
	"github.com/talgya/community-sim/internal/persistence"
	"github.com/talgya/community-sim/internal/scenario"
)

const smallConfig = `
width: 12
height: 12
num_members: 15
num_prospects: 20
scenario: Familiar
max_steps: 5000
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execRoot(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("version output %q lacks %q", out, version)
	}
}

func TestRunPersistsAndLists(t *testing.T) {
	t.Setenv("COMMUNITYSIM_SEED", "")
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, smallConfig)
	dbPath := filepath.Join(dir, "store", "runs.db")
	ticks := filepath.Join(dir, "ticks")

	out, err := execRoot(t, "run", "--json", "--config", cfgPath, "--seed", "77",
		"--scenario", "unified", "--db", dbPath, "--tick-log", ticks)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var got runOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if got.Report.Seed != 77 || got.Report.Scenario != "Unified" {
		t.Errorf("seed/scenario = %d/%s, want 77/Unified", got.Report.Seed, got.Report.Scenario)
	}
	if !got.Report.Result.Converged {
		t.Errorf("run did not converge: %+v", got.Report.Result)
	}

	recs, err := persistence.ReadTickLog(got.TickLog)
	if err != nil {
		t.Fatalf("read tick log: %v", err)
	}
	if len(recs) != int(got.Report.Result.Steps) {
		t.Errorf("tick log has %d records, want %d", len(recs), got.Report.Result.Steps)
	}

	listed, err := execRoot(t, "runs", "--db", dbPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(listed, got.RunID) {
		t.Errorf("runs output does not mention %s:\n%s", got.RunID, listed)
	}

	db, err := persistence.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	last, err := db.GetMeta("last_run")
	if err != nil || last != got.RunID {
		t.Errorf("last_run = %q, %v; want %s", last, err, got.RunID)
	}
}

func TestRunSameSeedSameSeries(t *testing.T) {
	t.Setenv("COMMUNITYSIM_SEED", "")
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, smallConfig)

	var series [2][]engine.TickRecord
	for i := range series {
		out, err := execRoot(t, "run", "--json", "--no-store", "--config", cfgPath, "--seed", "5")
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		var got runOutput
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatal(err)
		}
		series[i] = got.Report.Ticks
	}
	if len(series[0]) != len(series[1]) {
		t.Fatalf("lengths differ: %d vs %d", len(series[0]), len(series[1]))
	}
	for i := range series[0] {
		if series[0][i] != series[1][i] {
			t.Fatalf("step %d differs", i)
		}
	}
}

func TestRunStepCap(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `
num_members: 1
num_prospects: 200
scenario: Fragmented
`)
	out, err := execRoot(t, "run", "--config", cfgPath, "--seed", "3", "--max-steps", "2", "--no-store")
	if !errors.Is(err, engine.ErrNotConverged) {
		t.Fatalf("expected ErrNotConverged, got %v", err)
	}
	if !strings.Contains(out, "stopped at step cap") {
		t.Errorf("summary should report the cap:\n%s", out)
	}
}

func TestRunRejectsBadScenario(t *testing.T) {
	_, err := execRoot(t, "run", "--no-store", "--scenario", "Utopian")
	if !errors.Is(err, scenario.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestLauncherSavesRun(t *testing.T) {
	dir := t.TempDir()
	db, err := persistence.Open(filepath.Join(dir, "serve.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	base := config.Default()
	base.Width, base.Height = 10, 10
	base.NumMembers, base.NumProspects = 10, 12
	launch := launcher(base, db)

	id, err := launch(context.Background(), api.RunRequest{Seed: 4, Scenario: "Fragmented"})
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	run, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Seed != 4 || run.Scenario != "Fragmented" {
		t.Errorf("run = %+v", run)
	}
	if base.Scenario != "Familiar" {
		t.Errorf("launch mutated the base config: %s", base.Scenario)
	}

	if _, err := launch(context.Background(), api.RunRequest{Scenario: "Utopian"}); !errors.Is(err, scenario.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestExportLastRun(t *testing.T) {
	t.Setenv("COMMUNITYSIM_SEED", "")
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, smallConfig)
	dbPath := filepath.Join(dir, "runs.db")

	for _, seed := range []string{"1", "2"} {
		if _, err := execRoot(t, "run", "--config", cfgPath, "--seed", seed, "--db", dbPath); err != nil {
			t.Fatalf("run seed %s: %v", seed, err)
		}
	}

	csvPath := filepath.Join(dir, "results.csv")
	typPath := filepath.Join(dir, "typology.csv")
	plotPath := filepath.Join(dir, "growth.png")
	histPath := filepath.Join(dir, "types.png")
	out, err := execRoot(t, "export", "--db", dbPath, "--csv", csvPath, "--typology-csv", typPath,
		"--plot", plotPath, "--histogram", histPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Simulation results saved") {
		t.Errorf("unexpected output:\n%s", out)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Step Number Iteration #1,New Members Iteration #1\n") {
		t.Errorf("csv header: %q", strings.SplitN(string(data), "\n", 2)[0])
	}
	typ, err := os.ReadFile(typPath)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(typ), "\n"); lines != 16 {
		t.Errorf("typology csv has %d lines, want 16", lines)
	}
	for _, p := range []string{plotPath, histPath} {
		png, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(png, []byte("\x89PNG")) {
			t.Errorf("%s is not a PNG", filepath.Base(p))
		}
	}
}

func TestExportNeedsOutput(t *testing.T) {
	if _, err := execRoot(t, "export", "--db", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatal("expected an error without outputs")
	}
}
