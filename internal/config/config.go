// Package config provides configuration loading for community-sim.
// Values come from defaults, then an optional YAML file, then environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/talgya/community-sim/internal/agents"
	"github.com/talgya/community-sim/internal/scenario"
)

// Placement modes for initial agent positions.
const (
	PlacementUniform   = "uniform"
	PlacementClustered = "clustered"
)

// Config is everything one model run needs.
type Config struct {
	Width        int    `json:"width" yaml:"width"`
	Height       int    `json:"height" yaml:"height"`
	NumMembers   int    `json:"num_members" yaml:"num_members"`
	NumProspects int    `json:"num_prospects" yaml:"num_prospects"`
	Scenario     string `json:"scenario" yaml:"scenario"`

	// Traits holds the member trait distributions.
	Traits agents.TraitConfig `json:"traits" yaml:"traits"`

	// Seed drives every random draw of a run. 0 asks the caller to pick a
	// fresh seed.
	Seed int64 `json:"seed" yaml:"seed"`

	// MaxSteps bounds the loop. 0 means no bound; a run whose conversion
	// probability is structurally zero will then never end.
	MaxSteps int `json:"max_steps" yaml:"max_steps"`

	// ReportEvery sets how often (in ticks) a progress report is logged.
	ReportEvery int `json:"report_every" yaml:"report_every"`

	// Placement is "uniform" (default) or "clustered".
	Placement string `json:"placement" yaml:"placement"`

	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	// Level is "info" (default) or "debug". Debug logs every tick.
	Level string `json:"level" yaml:"level"`
}

// StorageConfig says where run results go. Empty paths disable the sink.
type StorageConfig struct {
	DBPath     string `json:"db_path" yaml:"db_path"`
	TickLogDir string `json:"tick_log_dir" yaml:"tick_log_dir"`
}

// Default returns a configuration that runs a small Familiar community.
func Default() *Config {
	trait := agents.TraitParams{Mean: 3.0, Std: 1.0}
	return &Config{
		Width:        50,
		Height:       50,
		NumMembers:   100,
		NumProspects: 100,
		Scenario:     scenario.Familiar.String(),
		Traits: agents.TraitConfig{
			EnvironmentalConcern: trait,
			EnergyIndependence:   trait,
			CommunitySensitivity: trait,
			FinancialConcern:     trait,
		},
		MaxSteps:    10000,
		ReportEvery: 10,
		Placement:   PlacementUniform,
		Logging:     LoggingConfig{Level: "info"},
		Storage:     StorageConfig{DBPath: "data/community.db"},
	}
}

// LoadFromFile loads configuration from a YAML file on top of defaults
// and applies environment overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Load returns defaults with environment overrides, or the file at path
// when path is non-empty.
func Load(path string) (*Config, error) {
	if path != "" {
		return LoadFromFile(path)
	}
	cfg := Default()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// ScenarioTag parses the configured scenario.
func (c *Config) ScenarioTag() (scenario.Scenario, error) {
	return scenario.Parse(c.Scenario)
}

// applyEnvOverrides applies COMMUNITYSIM_* environment variables.
// Malformed numbers are ignored.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("COMMUNITYSIM_SCENARIO"); v != "" {
		c.Scenario = v
	}
	if v := os.Getenv("COMMUNITYSIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = n
		}
	}
	if v := os.Getenv("COMMUNITYSIM_MAX_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxSteps = n
		}
	}
	if v := os.Getenv("COMMUNITYSIM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("COMMUNITYSIM_DB"); v != "" {
		c.Storage.DBPath = v
	}
}
