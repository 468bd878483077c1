package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance case: a program, the world it runs
// against, and the observables the run must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the golden
	// file name and as the program_file recorded in the trace, so runs
	// stay deterministic regardless of where the YAML lives on disk.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the inline program source.
	Program string `yaml:"program"`

	// World is the decoded world document ({"channels": {...}}).
	// Channel descriptors may use any wrapper form the loader accepts.
	World map[string]any `yaml:"world"`

	// Expect describes the required outcome.
	Expect ExpectClause `yaml:"expect"`
}

// ExpectClause specifies the expected run outcome. Exactly one of
// ErrorCode or the success fields applies: a scenario either fails with
// a specific runtime code or completes and matches the observables.
type ExpectClause struct {
	// Objs is the expected objectification sequence in commit order.
	// Empty means the sequence is not checked.
	Objs []string `yaml:"objs,omitempty"`

	// Summary holds expected summary fields. Subset match: only the
	// keys present are validated (N, deltaT, rho, kappa).
	Summary map[string]float64 `yaml:"summary,omitempty"`

	// ErrorCode, when set, requires the run to fail with this runtime
	// error code.
	ErrorCode string `yaml:"error_code,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly instead of silently passing.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadScenarioDir loads every *.yaml file in dir, sorted by file name.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Program == "" {
		return fmt.Errorf("program is required")
	}
	if s.World == nil {
		return fmt.Errorf("world is required")
	}

	hasSuccess := len(s.Expect.Objs) > 0 || len(s.Expect.Summary) > 0
	if s.Expect.ErrorCode != "" && hasSuccess {
		return fmt.Errorf("expect.error_code excludes expect.objs and expect.summary")
	}
	if s.Expect.ErrorCode == "" && !hasSuccess {
		return fmt.Errorf("expect must name an error_code or at least one observable")
	}

	for k := range s.Expect.Summary {
		switch k {
		case "N", "deltaT", "rho", "kappa":
		default:
			return fmt.Errorf("expect.summary: unknown field %q", k)
		}
	}
	return nil
}
