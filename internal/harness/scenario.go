package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/iontrap/internal/ir"
)

// Outcome statuses used in expect clauses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Scenario is a decoded conformance scenario.
type Scenario struct {
	Name        string
	Description string

	// FlowToken is the fixed token for program runs. Empty selects
	// testutil.DefaultFlowToken.
	FlowToken string

	// Trap and Wheel override the reference geometry when set.
	Trap  *ir.TrapSpec
	Wheel *ir.WheelSpec

	// Timeline mode.
	Positions ir.PositionHistory
	Schedule  ir.GateSchedule

	// Program mode. Nil in timeline mode.
	Program *ir.Program

	Expect Expect
}

// Expect is the outcome a scenario must produce. Fields other than Status
// are only checked when set.
type Expect struct {
	Status      string       `yaml:"status"`
	Code        ir.ErrorCode `yaml:"code,omitempty"`
	Tick        *int         `yaml:"tick,omitempty"`
	Ions        []int        `yaml:"ions,omitempty"`
	MinFidelity *float64     `yaml:"min_fidelity,omitempty"`
}

// IsProgram reports whether the scenario runs a program rather than a
// recorded timeline.
func (s *Scenario) IsProgram() bool {
	return s.Program != nil
}

// scenarioFile is the YAML shape. Geometry and timeline fields stay as
// nodes and are decoded through the JSON interchange form, so sites and
// gates accept exactly what plan files accept.
type scenarioFile struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	FlowToken   string    `yaml:"flow_token,omitempty"`
	Trap        yaml.Node `yaml:"trap,omitempty"`
	Wheel       yaml.Node `yaml:"wheel,omitempty"`
	Positions   yaml.Node `yaml:"positions,omitempty"`
	Schedule    yaml.Node `yaml:"schedule,omitempty"`
	Program     yaml.Node `yaml:"program,omitempty"`
	Target      string    `yaml:"target,omitempty"`
	Expect      Expect    `yaml:"expect"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var f scenarioFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	s := &Scenario{
		Name:        f.Name,
		Description: f.Description,
		FlowToken:   f.FlowToken,
		Expect:      f.Expect,
	}
	if err := viaJSON(&f.Trap, &s.Trap); err != nil {
		return nil, fmt.Errorf("trap: %w", err)
	}
	if err := viaJSON(&f.Wheel, &s.Wheel); err != nil {
		return nil, fmt.Errorf("wheel: %w", err)
	}
	if err := viaJSON(&f.Positions, &s.Positions); err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	if err := viaJSON(&f.Schedule, &s.Schedule); err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	if !f.Program.IsZero() {
		s.Program = &ir.Program{Name: f.Name, Target: f.Target, Trap: s.Trap, Wheel: s.Wheel}
		if err := viaJSON(&f.Program, &s.Program.Gates); err != nil {
			return nil, fmt.Errorf("program: %w", err)
		}
	} else if f.Target != "" {
		return nil, fmt.Errorf("invalid scenario: target requires a program")
	}

	if err := validateScenario(s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return s, nil
}

// viaJSON decodes node into out by way of JSON. An absent node leaves out
// untouched.
func viaJSON(node *yaml.Node, out any) error {
	if node.IsZero() {
		return nil
	}
	var generic any
	if err := node.Decode(&generic); err != nil {
		return err
	}
	data, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	timeline := s.Positions != nil || s.Schedule != nil
	switch {
	case s.IsProgram() && timeline:
		return fmt.Errorf("program cannot be combined with positions or schedule")
	case !s.IsProgram() && !timeline:
		return fmt.Errorf("either program or positions and schedule are required")
	case !s.IsProgram() && s.Wheel != nil:
		return fmt.Errorf("wheel only applies to program scenarios")
	}

	switch s.Expect.Status {
	case StatusOK:
		if s.Expect.Code != "" || s.Expect.Tick != nil || len(s.Expect.Ions) > 0 {
			return fmt.Errorf("expect: code, tick and ions only apply to status %q", StatusError)
		}
	case StatusError:
		if s.Expect.Code == "" {
			return fmt.Errorf("expect: code is required for status %q", StatusError)
		}
		if s.Expect.MinFidelity != nil {
			return fmt.Errorf("expect: min_fidelity only applies to status %q", StatusOK)
		}
	case "":
		return fmt.Errorf("expect: status is required")
	default:
		return fmt.Errorf("expect: unknown status %q", s.Expect.Status)
	}
	if s.Expect.MinFidelity != nil && !s.IsProgram() {
		return fmt.Errorf("expect: min_fidelity only applies to program scenarios")
	}
	return nil
}
