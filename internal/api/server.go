// Package api serves stored runs over HTTP and, when an admin key is set,
// lets authorised clients start new runs.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/community-sim/internal/persistence"
	"github.com/talgya/community-sim/internal/scenario"
)

// RunRequest overrides the base configuration for one launched run. Zero
// values keep the base value.
type RunRequest struct {
	Seed     int64  `json:"seed"`
	Scenario string `json:"scenario"`
	MaxSteps int    `json:"max_steps"`
}

// Launcher runs one model and returns the stored run id.
type Launcher func(ctx context.Context, req RunRequest) (string, error)

// Server serves the run store over HTTP.
type Server struct {
	DB       *persistence.DB
	Addr     string
	AdminKey string   // Bearer token for POST endpoints. Empty = POST disabled.
	Launch   Launcher // nil = POST disabled

	// Runs started over HTTP execute one at a time.
	launchMu sync.Mutex
	limiter  *RateLimiter
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	if s.limiter == nil {
		s.limiter = NewRateLimiter(10, time.Hour)
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleRunRoutes)

	return mux
}

// Serve listens on Addr until ctx is cancelled, then shuts down.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "", "launch", s.Launch != nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sweep := time.NewTicker(time.Hour)
	defer sweep.Stop()

	for {
		select {
		case err := <-errCh:
			return err
		case now := <-sweep.C:
			s.limiter.Sweep(now)
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			slog.Info("HTTP API shutting down")
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return nil
		}
	}
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	return ok && token == s.AdminKey
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" || s.Launch == nil {
			http.Error(w, "run launch disabled (no COMMUNITYSIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	runs, err := s.DB.CountRuns()
	if err != nil {
		slog.Error("status query failed", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	lastRun, err := s.DB.GetMeta("last_run")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Error("meta query failed", "error", err)
	}

	scenarios := make([]string, 0, len(scenario.All))
	for _, sc := range scenario.All {
		scenarios = append(scenarios, sc.String())
	}
	writeJSON(w, map[string]any{
		"runs":      runs,
		"last_run":  lastRun,
		"scenarios": scenarios,
		"launch":    s.AdminKey != "" && s.Launch != nil,
	})
}

// handleRuns lists runs (GET) or starts one (POST).
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 20
		if l := r.URL.Query().Get("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v >= 0 && v <= 1000 {
				limit = v
			}
		}
		runs, err := s.DB.ListRuns(limit)
		if err != nil {
			slog.Error("run list query failed", "error", err)
			http.Error(w, "database error", http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []persistence.RunSummary{}
		}
		writeJSON(w, runs)
	case http.MethodPost:
		s.adminOnly(RateLimitMiddleware(s.limiter, s.handleLaunch))(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}
	if req.Scenario != "" {
		if _, err := scenario.Parse(req.Scenario); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	s.launchMu.Lock()
	defer s.launchMu.Unlock()

	slog.Info("run requested", "seed", req.Seed, "scenario", req.Scenario, "max_steps", req.MaxSteps)
	id, err := s.Launch(r.Context(), req)
	switch {
	case errors.Is(err, scenario.ErrInvalidConfiguration):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil && id == "":
		slog.Error("launched run failed", "error", err)
		http.Error(w, "run failed", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{"run_id": id, "converged": err == nil}
	if err != nil {
		resp["error"] = err.Error()
	}
	w.Header().Set("Location", "/api/v1/runs/"+id)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, resp)
}

// handleRunRoutes dispatches /api/v1/runs/:id and its series and typology
// subresources.
func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/runs/"), "/")
	id := parts[0]
	if id == "" {
		http.Error(w, "missing run id", http.StatusBadRequest)
		return
	}

	run, err := s.DB.GetRun(id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("run query failed", "run", id, "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	sub := ""
	if len(parts) > 1 {
		sub = parts[1]
	}
	switch sub {
	case "":
		groups, err := s.DB.LoadGroups(id)
		if err != nil {
			slog.Error("group query failed", "run", id, "error", err)
			http.Error(w, "database error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"run": run, "groups": groups})
	case "series":
		series, err := s.DB.LoadSeries(id)
		if err != nil {
			slog.Error("series query failed", "run", id, "error", err)
			http.Error(w, "database error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, series)
	case "typologies":
		rows, err := s.DB.LoadTypologies(id)
		if err != nil {
			slog.Error("typology query failed", "run", id, "error", err)
			http.Error(w, "database error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, rows)
	default:
		http.Error(w, fmt.Sprintf("unknown resource %q", sub), http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
