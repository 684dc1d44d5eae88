// Package scheduler packs an ordered gate list into ticks.
//
// Ticks follow a fixed three-slot phase: tick i is entangling iff i%3 == 0,
// and only MS gates run in entangling ticks while RX/RY gates run in the two
// rotation ticks that follow. Within a tick a wire carries at most one gate,
// and the wires of an MS stay blocked for the tick after it.
//
// The scan is list scheduling over the pending queue in program order. A
// gate that cannot be placed still reserves its wires for the rest of the
// tick, so a later gate on the same wire can never overtake it.
package scheduler

import (
	"fmt"

	"github.com/roach88/iontrap/internal/ir"
)

// stallLimit is the number of consecutive empty ticks after which the
// scheduler gives up. Valid input never produces more than two.
const stallLimit = 3

// IsEntangling reports whether tick index is an entangling tick.
func IsEntangling(index int) bool {
	return index%3 == 0
}

// Tick is one closed scheduling slot. Slots holds one entry per wire; an MS
// gate is stored in the slot of its first operand and its second operand's
// slot stays nil.
type Tick struct {
	Index int
	Slots [ir.NumIons]*ir.Gate
}

// Entangling reports whether the tick is in the entangling phase.
func (t Tick) Entangling() bool {
	return IsEntangling(t.Index)
}

// Ops returns the tick's gates in wire order.
func (t Tick) Ops() ir.Tick {
	ops := ir.Tick{}
	for _, g := range t.Slots {
		if g != nil {
			ops = append(ops, *g)
		}
	}
	return ops
}

// Occupied reports whether any gate of the tick acts on wire.
func (t Tick) Occupied(wire int) bool {
	for _, g := range t.Slots {
		if g != nil && g.Touches(wire) {
			return true
		}
	}
	return false
}

// Full reports whether every wire carries a gate.
func (t Tick) Full() bool {
	for w := 0; w < ir.NumIons; w++ {
		if !t.Occupied(w) {
			return false
		}
	}
	return true
}

// Result is the ordered list of closed ticks.
type Result struct {
	Ticks []Tick
}

// Schedule converts the result into the interchange schedule.
func (r *Result) Schedule() ir.GateSchedule {
	out := make(ir.GateSchedule, len(r.Ticks))
	for i, t := range r.Ticks {
		out[i] = t.Ops()
	}
	return out
}

// Flatten returns every scheduled gate in tick order.
func (r *Result) Flatten() []ir.Gate {
	return r.Schedule().Flatten()
}

type options struct {
	maxEntangling int
}

// Option configures Schedule.
type Option func(*options)

// WithEntanglingLimit caps the number of MS gates placed in one entangling
// tick. Zero means no cap. A single-hub router needs a limit of 1.
func WithEntanglingLimit(n int) Option {
	return func(o *options) {
		o.maxEntangling = n
	}
}

// Schedule packs gates into ticks. Gates are validated first; an invalid
// gate fails with MALFORMED_INPUT naming its position in the list.
func Schedule(gates []ir.Gate, opts ...Option) (*Result, error) {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	for i, g := range gates {
		if err := g.Validate(); err != nil {
			e, _ := ir.AsError(err)
			e.Message = fmt.Sprintf("gate %d: %s", i, e.Message)
			return nil, e
		}
	}

	pending := make([]int, len(gates))
	for i := range pending {
		pending[i] = i
	}

	res := &Result{}
	var carried [ir.NumIons]bool
	empty := 0

	for index := 0; len(pending) > 0; index++ {
		tick := Tick{Index: index}
		busy := carried
		carried = [ir.NumIons]bool{}
		entangling := IsEntangling(index)
		placed, placedMS := 0, 0
		remaining := make([]int, 0, len(pending))

		for pos, gi := range pending {
			if allSet(busy) {
				remaining = append(remaining, pending[pos:]...)
				break
			}
			g := gates[gi]
			eligible := g.IsEntangling() == entangling && allClear(busy, g.Wires)
			if eligible && g.IsEntangling() && cfg.maxEntangling > 0 && placedMS >= cfg.maxEntangling {
				eligible = false
			}
			for _, w := range g.Wires {
				busy[w] = true
			}
			if !eligible {
				remaining = append(remaining, gi)
				continue
			}
			gate := g
			tick.Slots[g.Wires[0]] = &gate
			placed++
			if g.IsEntangling() {
				placedMS++
				for _, w := range g.Wires {
					carried[w] = true
				}
			}
		}

		pending = remaining
		res.Ticks = append(res.Ticks, tick)

		if placed > 0 {
			empty = 0
			continue
		}
		empty++
		if empty >= stallLimit {
			return nil, ir.TickError(ir.CodeUnschedulable, index,
				fmt.Sprintf("no gate placed in %d consecutive ticks with %d pending", empty, len(pending)))
		}
	}

	return res, nil
}

func allSet(v [ir.NumIons]bool) bool {
	for _, b := range v {
		if !b {
			return false
		}
	}
	return true
}

func allClear(v [ir.NumIons]bool, wires []int) bool {
	for _, w := range wires {
		if v[w] {
			return false
		}
	}
	return true
}
