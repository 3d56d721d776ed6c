// Package persistence provides SQLite-based run storage and the compressed
// per-tick log.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/community-sim/internal/agents"
	"github.com/talgya/community-sim/internal/config"
	"github.com/talgya/community-sim/internal/engine"
)

// DB wraps a SQLite connection holding finished runs.
type DB struct {
	conn *sqlx.DB
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID           string `db:"id" json:"id"`
	Seed         int64  `db:"seed" json:"seed"`
	Scenario     string `db:"scenario" json:"scenario"`
	NumMembers   int    `db:"num_members" json:"num_members"`
	NumProspects int    `db:"num_prospects" json:"num_prospects"`
	Steps        uint64 `db:"steps" json:"steps"`
	Converged    bool   `db:"converged" json:"converged"`
	NewMembers   int    `db:"new_members" json:"new_members"`
	Attempts     int    `db:"attempts" json:"attempts"`
	CreatedAt    int64  `db:"created_at" json:"created_at"` // Unix seconds
}

// Created returns the creation time of the run.
func (r RunSummary) Created() time.Time {
	return time.Unix(r.CreatedAt, 0)
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		scenario TEXT NOT NULL,
		num_members INTEGER NOT NULL,
		num_prospects INTEGER NOT NULL,
		config_json TEXT NOT NULL,
		steps INTEGER NOT NULL,
		converged INTEGER NOT NULL,
		new_members INTEGER NOT NULL,
		attempts INTEGER NOT NULL,
		outreach_conversions INTEGER NOT NULL,
		peer_conversions INTEGER NOT NULL,
		reciprocity REAL NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_series (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		new_members INTEGER NOT NULL,
		growth_pct REAL NOT NULL,
		outreach INTEGER NOT NULL,
		peer INTEGER NOT NULL,
		attempts INTEGER NOT NULL,
		PRIMARY KEY (run_id, step)
	);

	CREATE TABLE IF NOT EXISTS member_typology (
		run_id TEXT NOT NULL,
		member_id INTEGER NOT NULL,
		typology TEXT NOT NULL,
		PRIMARY KEY (run_id, member_id)
	);

	CREATE TABLE IF NOT EXISTS adopter_groups (
		run_id TEXT NOT NULL,
		grp TEXT NOT NULL,
		size INTEGER NOT NULL,
		joined INTEGER NOT NULL,
		PRIMARY KEY (run_id, grp)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun writes a finished run, its series, typology table and group
// breakdown in one transaction. Saving the same id twice replaces it.
func (db *DB) SaveRun(id string, cfg *config.Config, rep engine.Report) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"run_series", "member_typology", "adopter_groups"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE run_id = ?", id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	converged := 0
	if rep.Result.Converged {
		converged = 1
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO runs
		(id, seed, scenario, num_members, num_prospects, config_json, steps,
		 converged, new_members, attempts, outreach_conversions, peer_conversions,
		 reciprocity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rep.Seed, rep.Scenario, rep.NumMembers, rep.NumProspects, string(cfgJSON),
		int64(rep.Result.Steps), converged, rep.Result.NewMembers, rep.Result.Attempts,
		rep.Stats.OutreachConversions, rep.Stats.PeerConversions,
		rep.Reciprocity, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", id, err)
	}

	stmt, err := tx.Preparex(`INSERT INTO run_series
		(run_id, step, new_members, growth_pct, outreach, peer, attempts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range rep.Ticks {
		_, err := stmt.Exec(id, int64(rec.Tick), rec.NewMembers, rec.GrowthPercentage,
			rec.OutreachConversions, rec.PeerConversions, rec.Attempts)
		if err != nil {
			return fmt.Errorf("insert step %d: %w", rec.Tick, err)
		}
	}

	for _, row := range rep.Typologies {
		_, err := tx.Exec("INSERT INTO member_typology (run_id, member_id, typology) VALUES (?, ?, ?)",
			id, int64(row.ID), row.Typology)
		if err != nil {
			return fmt.Errorf("insert typology %d: %w", row.ID, err)
		}
	}

	for _, g := range rep.Groups {
		_, err := tx.Exec("INSERT INTO adopter_groups (run_id, grp, size, joined) VALUES (?, ?, ?, ?)",
			id, g.Group, g.Size, g.Joined)
		if err != nil {
			return fmt.Errorf("insert group %s: %w", g.Group, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("run saved", "run", id, "steps", rep.Result.Steps, "typologies", len(rep.Typologies))
	return nil
}

// LoadSeries returns the per-tick records of a run in step order.
func (db *DB) LoadSeries(id string) ([]engine.TickRecord, error) {
	var series []engine.TickRecord
	err := db.conn.Select(&series,
		`SELECT step, new_members, growth_pct, outreach, peer, attempts
		 FROM run_series WHERE run_id = ? ORDER BY step`,
		id,
	)
	return series, err
}

// LoadTypologies returns the member typology table of a run.
func (db *DB) LoadTypologies(id string) ([]agents.TypologyRow, error) {
	var rows []agents.TypologyRow
	err := db.conn.Select(&rows,
		"SELECT member_id, typology FROM member_typology WHERE run_id = ? ORDER BY member_id",
		id,
	)
	return rows, err
}

// LoadGroups returns the adopter group breakdown of a run.
func (db *DB) LoadGroups(id string) ([]engine.GroupSummary, error) {
	var groups []engine.GroupSummary
	err := db.conn.Select(&groups,
		"SELECT grp, size, joined FROM adopter_groups WHERE run_id = ? ORDER BY rowid",
		id,
	)
	return groups, err
}

// GetRun returns one run summary.
func (db *DB) GetRun(id string) (RunSummary, error) {
	var r RunSummary
	err := db.conn.Get(&r, `SELECT id, seed, scenario, num_members, num_prospects, steps,
		converged, new_members, attempts, created_at FROM runs WHERE id = ?`, id)
	return r, err
}

// ListRuns returns the most recent runs first. A limit of 0 lists all.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	var runs []RunSummary
	err := db.conn.Select(&runs,
		`SELECT id, seed, scenario, num_members, num_prospects, steps, converged,
		 new_members, attempts, created_at
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	return runs, err
}

// CountRuns returns the number of stored runs.
func (db *DB) CountRuns() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM runs")
	return n, err
}

// SaveMeta stores a key-value pair in metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}
