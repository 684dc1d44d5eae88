package fidelity

import (
	"fmt"

	"github.com/roach88/iontrap/internal/ir"
)

// Oracle scores schedules against a fixed ideal state.
type Oracle struct {
	Target State
}

// NewOracle builds the oracle for a program: its own gate list for
// ir.TargetProgram (or an empty target), the full-width QFT for ir.TargetQFT.
func NewOracle(p *ir.Program) (*Oracle, error) {
	var (
		target State
		err    error
	)
	switch p.Target {
	case "", ir.TargetProgram:
		target, err = RealizeGates(p.Gates)
	case ir.TargetQFT:
		target, err = QFT(ir.NumIons)
	default:
		return nil, fmt.Errorf("unknown fidelity target %q", p.Target)
	}
	if err != nil {
		return nil, err
	}
	return &Oracle{Target: target}, nil
}

// Fidelity realizes schedule and returns its overlap with the target.
func (o *Oracle) Fidelity(schedule ir.GateSchedule) (float64, error) {
	s, err := Realize(schedule)
	if err != nil {
		return 0, err
	}
	return Overlap(o.Target, s), nil
}
