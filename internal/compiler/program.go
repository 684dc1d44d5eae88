package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/iontrap/internal/ir"
)

// ProgramPath is the top-level field a program source defines.
const ProgramPath = "program"

// CompileSource compiles CUE source text and returns its program.
// filename only labels positions in errors.
func CompileSource(filename string, src []byte) (*ir.Program, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	pv := v.LookupPath(cue.ParsePath(ProgramPath))
	if !pv.Exists() {
		return nil, &CompileError{
			Field:   ProgramPath,
			Message: "no program defined",
			Pos:     v.Pos(),
		}
	}
	return CompileProgram(pv)
}

// CompileProgram parses a CUE value into a Program.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value is the program struct itself, e.g.:
//
//	v := ctx.CompileString(`program: { name: "bell", gates: [...] }`)
//	p, err := CompileProgram(v.LookupPath(cue.ParsePath("program")))
//
// Compilation stops at the first structural problem. Semantic checks that
// can be reported together live in Validate.
func CompileProgram(v cue.Value) (*ir.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &ir.Program{Target: ir.TargetProgram}

	var err error
	if p.Name, err = optionalString(v, "name"); err != nil {
		return nil, err
	}
	if target, err := optionalString(v, "target"); err != nil {
		return nil, err
	} else if target != "" {
		p.Target = target
	}

	gatesVal := v.LookupPath(cue.ParsePath("gates"))
	if !gatesVal.Exists() {
		return nil, &CompileError{
			Field:   "gates",
			Message: "gates is required",
			Pos:     v.Pos(),
		}
	}
	if p.Gates, err = parseGates(gatesVal); err != nil {
		return nil, err
	}

	if trapVal := v.LookupPath(cue.ParsePath("trap")); trapVal.Exists() {
		if p.Trap, err = parseTrap(trapVal); err != nil {
			return nil, err
		}
	}
	if wheelVal := v.LookupPath(cue.ParsePath("wheel")); wheelVal.Exists() {
		if p.Wheel, err = parseWheel(wheelVal); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{
			Field:   field,
			Message: "must be a string",
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

// parseGates reads the gate list. Each entry is
// { kind: "RX"|"RY"|"MS", angle: number, wires: int | [int, int] }.
func parseGates(v cue.Value) ([]ir.Gate, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "gates",
			Message: "must be a list",
			Pos:     v.Pos(),
		}
	}

	gates := []ir.Gate{}
	for i := 0; iter.Next(); i++ {
		g, err := parseGate(iter.Value(), fmt.Sprintf("gates[%d]", i))
		if err != nil {
			return nil, err
		}
		gates = append(gates, g)
	}
	return gates, nil
}

func parseGate(v cue.Value, field string) (ir.Gate, error) {
	var g ir.Gate

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	kind, err := kindVal.String()
	if err != nil {
		return g, &CompileError{
			Field:   field + ".kind",
			Message: "kind is required and must be a string",
			Pos:     v.Pos(),
		}
	}
	g.Kind = ir.GateKind(kind)

	angleVal := v.LookupPath(cue.ParsePath("angle"))
	if g.Angle, err = angleVal.Float64(); err != nil {
		return g, &CompileError{
			Field:   field + ".angle",
			Message: "angle is required and must be a number",
			Pos:     v.Pos(),
		}
	}

	wiresVal := v.LookupPath(cue.ParsePath("wires"))
	switch wiresVal.IncompleteKind() {
	case cue.IntKind:
		w, err := wiresVal.Int64()
		if err != nil {
			return g, formatCUEError(err)
		}
		g.Wires = []int{int(w)}
	case cue.ListKind:
		if g.Wires, err = parseInts(wiresVal, field+".wires"); err != nil {
			return g, err
		}
	default:
		return g, &CompileError{
			Field:   field + ".wires",
			Message: "wires must be an integer or a list of integers",
			Pos:     v.Pos(),
		}
	}
	return g, nil
}

func parseInts(v cue.Value, field string) ([]int, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []int
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: "elements must be integers",
				Pos:     iter.Value().Pos(),
			}
		}
		out = append(out, int(n))
	}
	return out, nil
}

// parseSite reads [row, col] or [row, col, "idle"].
func parseSite(v cue.Value, field string) (ir.SiteID, error) {
	var s ir.SiteID
	bad := &CompileError{
		Field:   field,
		Message: `site must be [row, col] or [row, col, "idle"]`,
		Pos:     v.Pos(),
	}

	iter, err := v.List()
	if err != nil {
		return s, bad
	}
	var elems []cue.Value
	for iter.Next() {
		elems = append(elems, iter.Value())
	}
	if len(elems) != 2 && len(elems) != 3 {
		return s, bad
	}
	row, err := elems[0].Int64()
	if err != nil {
		return s, bad
	}
	col, err := elems[1].Int64()
	if err != nil {
		return s, bad
	}
	s = ir.Grid(int(row), int(col))
	if len(elems) == 3 {
		if tag, err := elems[2].String(); err != nil || tag != "idle" {
			return s, bad
		}
		s.Idle = true
	}
	return s, nil
}

func parseSites(v cue.Value, field string) ([]ir.SiteID, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: "must be a list of sites",
			Pos:     v.Pos(),
		}
	}
	var out []ir.SiteID
	for i := 0; iter.Next(); i++ {
		s, err := parseSite(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func parseTrap(v cue.Value) (*ir.TrapSpec, error) {
	spec := &ir.TrapSpec{}

	for _, f := range []struct {
		name string
		dst  *int
	}{{"rows", &spec.Rows}, {"cols", &spec.Cols}} {
		fv := v.LookupPath(cue.ParsePath(f.name))
		n, err := fv.Int64()
		if err != nil {
			return nil, &CompileError{
				Field:   "trap." + f.name,
				Message: f.name + " is required and must be an integer",
				Pos:     v.Pos(),
			}
		}
		*f.dst = int(n)
	}

	interVal := v.LookupPath(cue.ParsePath("interaction"))
	if interVal.Exists() {
		sites, err := parseSites(interVal, "trap.interaction")
		if err != nil {
			return nil, err
		}
		spec.Interaction = sites
	}
	return spec, nil
}

func parseWheel(v cue.Value) (*ir.WheelSpec, error) {
	hubVal := v.LookupPath(cue.ParsePath("hub"))
	if !hubVal.Exists() {
		return nil, &CompileError{
			Field:   "wheel.hub",
			Message: "hub is required",
			Pos:     v.Pos(),
		}
	}
	hub, err := parseSite(hubVal, "wheel.hub")
	if err != nil {
		return nil, err
	}

	ringVal := v.LookupPath(cue.ParsePath("ring"))
	if !ringVal.Exists() {
		return nil, &CompileError{
			Field:   "wheel.ring",
			Message: "ring is required",
			Pos:     v.Pos(),
		}
	}
	ring, err := parseSites(ringVal, "wheel.ring")
	if err != nil {
		return nil, err
	}
	return &ir.WheelSpec{Hub: hub, Ring: ring}, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
