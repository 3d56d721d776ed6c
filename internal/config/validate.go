package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talgya/community-sim/internal/scenario"
)

//go:embed config.schema.json
var schemaText string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("config.schema.json", schemaText)
	})
	return schema, schemaErr
}

// Validate checks the configuration against the embedded JSON schema and
// then resolves the scenario tag. Every failure wraps
// scenario.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%v: %w", err, scenario.ErrInvalidConfiguration)
	}

	if _, err := c.ScenarioTag(); err != nil {
		return err
	}
	return nil
}
