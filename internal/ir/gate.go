package ir

import (
	"encoding/json"
	"fmt"
	"math"
)

// GateKind is the tag of the closed gate variant.
type GateKind string

const (
	// GateRX is a single-operand rotation about X.
	GateRX GateKind = "RX"

	// GateRY is a single-operand rotation about Y.
	GateRY GateKind = "RY"

	// GateMS is the two-operand Mølmer–Sørensen entangling gate.
	GateMS GateKind = "MS"
)

// Gate is one logical operation. RX and RY carry one wire, MS carries two.
// Use the RX, RY and MS constructors; Validate checks hand-built values.
type Gate struct {
	Kind  GateKind
	Angle float64
	Wires []int
}

// RX builds an X rotation on wire.
func RX(angle float64, wire int) Gate {
	return Gate{Kind: GateRX, Angle: angle, Wires: []int{wire}}
}

// RY builds a Y rotation on wire.
func RY(angle float64, wire int) Gate {
	return Gate{Kind: GateRY, Angle: angle, Wires: []int{wire}}
}

// MS builds an entangling gate on wires a and b.
func MS(angle float64, a, b int) Gate {
	return Gate{Kind: GateMS, Angle: angle, Wires: []int{a, b}}
}

// IsEntangling reports whether g is an MS gate.
func (g Gate) IsEntangling() bool {
	return g.Kind == GateMS
}

// Wire returns the single operand of an RX/RY gate.
func (g Gate) Wire() int {
	return g.Wires[0]
}

// Pair returns the operands of an MS gate.
func (g Gate) Pair() (int, int) {
	return g.Wires[0], g.Wires[1]
}

// SamePair reports whether g is an MS on exactly the ions a and b, in
// either order.
func (g Gate) SamePair(a, b int) bool {
	if g.Kind != GateMS || len(g.Wires) != 2 {
		return false
	}
	return (g.Wires[0] == a && g.Wires[1] == b) || (g.Wires[0] == b && g.Wires[1] == a)
}

// Touches reports whether g acts on wire.
func (g Gate) Touches(wire int) bool {
	for _, w := range g.Wires {
		if w == wire {
			return true
		}
	}
	return false
}

// String renders e.g. RX(3.141593, 0) or MS(0.785398, 2, 5).
func (g Gate) String() string {
	switch len(g.Wires) {
	case 1:
		return fmt.Sprintf("%s(%g, %d)", g.Kind, g.Angle, g.Wires[0])
	case 2:
		return fmt.Sprintf("%s(%g, %d, %d)", g.Kind, g.Angle, g.Wires[0], g.Wires[1])
	default:
		return fmt.Sprintf("%s(%g, %v)", g.Kind, g.Angle, g.Wires)
	}
}

// Validate checks the gate against the closed variant. It returns a
// MALFORMED_INPUT *Error, or nil.
func (g Gate) Validate() error {
	var want int
	switch g.Kind {
	case GateRX, GateRY:
		want = 1
	case GateMS:
		want = 2
	default:
		return NewError(CodeMalformedInput, fmt.Sprintf("unknown gate kind %q", g.Kind))
	}
	if math.IsNaN(g.Angle) || math.IsInf(g.Angle, 0) {
		return NewError(CodeMalformedInput, fmt.Sprintf("%s angle must be a finite number, got %v", g.Kind, g.Angle))
	}
	if len(g.Wires) != want {
		return NewError(CodeMalformedInput, fmt.Sprintf("%s takes %d wire(s), got %d", g.Kind, want, len(g.Wires)))
	}
	for _, w := range g.Wires {
		if w < 0 || w >= NumIons {
			return NewError(CodeMalformedInput, fmt.Sprintf("%s wire %d out of range [0, %d)", g.Kind, w, NumIons)).WithIons(g.Wires...)
		}
	}
	if want == 2 && g.Wires[0] == g.Wires[1] {
		return NewError(CodeMalformedInput, fmt.Sprintf("MS operands must be distinct, got %d twice", g.Wires[0])).WithIons(g.Wires...)
	}
	return nil
}

// gateRecord is the interchange shape: wires is a number for RX/RY and a
// two-element array for MS.
type gateRecord struct {
	Kind  GateKind        `json:"kind"`
	Angle json.RawMessage `json:"angle"`
	Wires json.RawMessage `json:"wires"`
}

// MarshalJSON renders {"kind","angle","wires"}.
func (g Gate) MarshalJSON() ([]byte, error) {
	var wires any = g.Wires
	if g.Kind != GateMS && len(g.Wires) == 1 {
		wires = g.Wires[0]
	}
	return json.Marshal(struct {
		Kind  GateKind `json:"kind"`
		Angle float64  `json:"angle"`
		Wires any      `json:"wires"`
	}{g.Kind, g.Angle, wires})
}

// UnmarshalJSON parses the interchange record. Type errors (a string angle,
// a non-integer wire) are reported as MALFORMED_INPUT; range checks are left
// to Validate.
func (g *Gate) UnmarshalJSON(data []byte) error {
	var rec gateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return NewError(CodeMalformedInput, fmt.Sprintf("invalid gate record: %v", err))
	}
	var angle float64
	if err := json.Unmarshal(rec.Angle, &angle); err != nil {
		return NewError(CodeMalformedInput, fmt.Sprintf("gate angle must be a number, got %s", string(rec.Angle)))
	}
	wires, err := decodeWires(rec.Wires)
	if err != nil {
		return err
	}
	*g = Gate{Kind: rec.Kind, Angle: angle, Wires: wires}
	return nil
}

func decodeWires(raw json.RawMessage) ([]int, error) {
	var single int
	if err := json.Unmarshal(raw, &single); err == nil {
		return []int{single}, nil
	}
	var many []int
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, NewError(CodeMalformedInput, fmt.Sprintf("gate wires must be an integer or a list of integers, got %s", string(raw)))
	}
	return many, nil
}
