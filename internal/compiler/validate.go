package compiler

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/iontrap/internal/ir"
	"github.com/roach88/iontrap/internal/router"
	"github.com/roach88/iontrap/internal/topology"
)

// Validation error codes (E100-E199)
const (
	ErrProgramNameEmpty = "E101" // name is required
	ErrProgramNoGates   = "E102" // at least one gate required
	ErrUnknownGateKind  = "E103" // kind outside RX/RY/MS
	ErrWireCount        = "E104" // wrong number of wires for kind
	ErrWireOutOfRange   = "E105" // wire outside [0, N)
	ErrDuplicateOperand = "E106" // MS on one wire twice
	ErrAngleNotFinite   = "E107" // NaN or infinite angle
	ErrUnknownTarget    = "E108" // target outside program/qft
	ErrInvalidTrap      = "E109" // trap dimensions or interaction sites
	ErrInvalidWheel     = "E110" // hub or ring rejected by the trap
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled program and returns every problem found
// (does not fail-fast). A nil result means the program can be scheduled.
func Validate(p *ir.Program) []ValidationError {
	var errs []ValidationError

	// E101: name is required
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "name is required and must be non-empty",
			Code:    ErrProgramNameEmpty,
		})
	}

	// E108: known fidelity target
	switch p.Target {
	case "", ir.TargetProgram, ir.TargetQFT:
	default:
		errs = append(errs, ValidationError{
			Field:   "target",
			Message: fmt.Sprintf("unknown target %q, want %q or %q", p.Target, ir.TargetProgram, ir.TargetQFT),
			Code:    ErrUnknownTarget,
		})
	}

	// E102: at least one gate
	if len(p.Gates) == 0 {
		errs = append(errs, ValidationError{
			Field:   "gates",
			Message: "at least one gate is required",
			Code:    ErrProgramNoGates,
		})
	}
	for i, g := range p.Gates {
		errs = append(errs, validateGate(g, fmt.Sprintf("gates[%d]", i))...)
	}

	// E109/E110: the trap must build and the wheel must fit on it
	topo, err := topology.FromSpec(p.Trap)
	if err != nil {
		errs = append(errs, ValidationError{
			Field:   "trap",
			Message: messageOf(err),
			Code:    ErrInvalidTrap,
		})
		return errs
	}
	if _, err := router.WheelFromSpec(topo, p.Wheel); err != nil {
		errs = append(errs, ValidationError{
			Field:   "wheel",
			Message: messageOf(err),
			Code:    ErrInvalidWheel,
		})
	}

	return errs
}

// validateGate reports every problem with one gate.
func validateGate(g ir.Gate, field string) []ValidationError {
	var errs []ValidationError

	want := 0
	switch g.Kind {
	case ir.GateRX, ir.GateRY:
		want = 1
	case ir.GateMS:
		want = 2
	default:
		errs = append(errs, ValidationError{
			Field:   field + ".kind",
			Message: fmt.Sprintf("unknown gate kind %q", g.Kind),
			Code:    ErrUnknownGateKind,
		})
	}

	if math.IsNaN(g.Angle) || math.IsInf(g.Angle, 0) {
		errs = append(errs, ValidationError{
			Field:   field + ".angle",
			Message: fmt.Sprintf("angle must be finite, got %v", g.Angle),
			Code:    ErrAngleNotFinite,
		})
	}

	if want > 0 && len(g.Wires) != want {
		errs = append(errs, ValidationError{
			Field:   field + ".wires",
			Message: fmt.Sprintf("%s takes %d wire(s), got %d", g.Kind, want, len(g.Wires)),
			Code:    ErrWireCount,
		})
	}

	for j, w := range g.Wires {
		if w < 0 || w >= ir.NumIons {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.wires[%d]", field, j),
				Message: fmt.Sprintf("wire %d out of range [0, %d)", w, ir.NumIons),
				Code:    ErrWireOutOfRange,
			})
		}
	}

	if g.Kind == ir.GateMS && len(g.Wires) == 2 && g.Wires[0] == g.Wires[1] {
		errs = append(errs, ValidationError{
			Field:   field + ".wires",
			Message: fmt.Sprintf("MS operands must be distinct, got %d twice", g.Wires[0]),
			Code:    ErrDuplicateOperand,
		})
	}

	return errs
}

func messageOf(err error) string {
	if e, ok := ir.AsError(err); ok {
		return e.Message
	}
	return err.Error()
}
