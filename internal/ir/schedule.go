package ir

// Tick is the set of gates executed in one time slot. Wire sets of the gates
// in a tick are pairwise disjoint.
type Tick []Gate

// GateSchedule is the ordered sequence of ticks.
type GateSchedule []Tick

// Wires returns every wire referenced in the tick, in gate order.
func (t Tick) Wires() []int {
	var wires []int
	for _, g := range t {
		wires = append(wires, g.Wires...)
	}
	return wires
}

// Entangler returns the first MS gate of the tick.
func (t Tick) Entangler() (Gate, bool) {
	for _, g := range t {
		if g.IsEntangling() {
			return g, true
		}
	}
	return Gate{}, false
}

// CountMS returns the number of MS gates in the tick.
func (t Tick) CountMS() int {
	n := 0
	for _, g := range t {
		if g.IsEntangling() {
			n++
		}
	}
	return n
}

// HasPair reports whether the tick contains an MS on exactly ions a and b.
func (t Tick) HasPair(a, b int) bool {
	for _, g := range t {
		if g.SamePair(a, b) {
			return true
		}
	}
	return false
}

// Flatten returns every gate of the schedule in tick order.
func (s GateSchedule) Flatten() []Gate {
	var out []Gate
	for _, t := range s {
		out = append(out, t...)
	}
	return out
}

// TransportFrame marks a Plan frame inserted by the router that executes no
// input tick.
const TransportFrame = -1

// Plan is a routed timeline: Positions[k] is the snapshot under which
// Schedule[k] executes. Source[k] is the input tick executed by frame k, or
// TransportFrame.
type Plan struct {
	Schedule  GateSchedule    `json:"schedule"`
	Positions PositionHistory `json:"positions"`
	Source    []int           `json:"source,omitempty"`
}

// Frames returns the number of frames of the plan.
func (p *Plan) Frames() int {
	return len(p.Schedule)
}

// TransportFrames returns the number of frames inserted by the router.
func (p *Plan) TransportFrames() int {
	n := 0
	for _, src := range p.Source {
		if src == TransportFrame {
			n++
		}
	}
	return n
}

// InputSchedule returns the schedule with transport frames removed.
func (p *Plan) InputSchedule() GateSchedule {
	if len(p.Source) != len(p.Schedule) {
		return p.Schedule
	}
	var out GateSchedule
	for k, src := range p.Source {
		if src != TransportFrame {
			out = append(out, p.Schedule[k])
		}
	}
	return out
}

// TrapSpec describes a rows x cols trap and its Interaction coordinates.
type TrapSpec struct {
	Rows        int      `json:"rows"`
	Cols        int      `json:"cols"`
	Interaction []SiteID `json:"interaction"`
}

// WheelSpec names the hub and the ring sites used by the router.
type WheelSpec struct {
	Hub  SiteID   `json:"hub"`
	Ring []SiteID `json:"ring"`
}

// Target names the ideal result a program is compared against.
const (
	// TargetProgram compares against the program's own gates in order.
	TargetProgram = "program"

	// TargetQFT compares against the quantum Fourier transform of |0…0⟩.
	TargetQFT = "qft"
)

// Program is a loaded gate program with its optional trap and wheel.
// A nil Trap or Wheel selects the defaults.
type Program struct {
	Name   string     `json:"name"`
	Target string     `json:"target"`
	Trap   *TrapSpec  `json:"trap,omitempty"`
	Wheel  *WheelSpec `json:"wheel,omitempty"`
	Gates  []Gate     `json:"gates"`
}
