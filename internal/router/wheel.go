package router

import (
	"fmt"

	"github.com/roach88/iontrap/internal/ir"
	"github.com/roach88/iontrap/internal/topology"
)

// Wheel is the routing geometry: a cycle of Standard ring sites around one
// Interaction hub. The hub is adjacent to every odd ring slot and to no even
// one, so ions enter and leave the hub only through odd slots.
type Wheel struct {
	Hub  ir.SiteID
	Ring []ir.SiteID
}

// Size returns the number of ring slots.
func (w *Wheel) Size() int {
	return len(w.Ring)
}

// Site maps a ring slot to its trap site.
func (w *Wheel) Site(slot int) ir.SiteID {
	return w.Ring[slot]
}

// NewWheel checks the wheel geometry against topo.
func NewWheel(topo *topology.Topology, hub ir.SiteID, ring []ir.SiteID) (*Wheel, error) {
	if kind, ok := topo.KindOf(hub); !ok || kind != ir.KindInteraction {
		return nil, ir.NewError(ir.CodeMalformedInput, fmt.Sprintf("wheel hub %s must be an interaction site", hub)).WithSites(hub)
	}
	r := len(ring)
	if r < ir.NumIons || r%2 != 0 {
		return nil, ir.NewError(ir.CodeMalformedInput, fmt.Sprintf("wheel ring needs an even number of slots >= %d, got %d", ir.NumIons, r))
	}

	seen := make(map[ir.SiteID]bool, r)
	for i, s := range ring {
		if kind, ok := topo.KindOf(s); !ok || kind != ir.KindStandard {
			return nil, ir.NewError(ir.CodeMalformedInput, fmt.Sprintf("ring slot %d at %s must be a standard site", i, s)).WithSites(s)
		}
		if seen[s] {
			return nil, ir.NewError(ir.CodeMalformedInput, fmt.Sprintf("ring slot %d repeats site %s", i, s)).WithSites(s)
		}
		seen[s] = true

		next := ring[(i+1)%r]
		if !topo.HasEdge(s, next) {
			return nil, ir.NewError(ir.CodeMalformedInput, fmt.Sprintf("ring slots %d and %d are not adjacent", i, (i+1)%r)).WithSites(s, next)
		}
		if topo.HasEdge(hub, s) != (i%2 == 1) {
			return nil, ir.NewError(ir.CodeMalformedInput, fmt.Sprintf("hub must touch exactly the odd ring slots, slot %d at %s breaks this", i, s)).WithSites(hub, s)
		}
	}

	return &Wheel{Hub: hub, Ring: append([]ir.SiteID(nil), ring...)}, nil
}

// DefaultRing is the eight-site ring around the (1,1) hub of the reference
// trap, starting from the corner so that the hub's neighbours sit on odd
// slots.
var DefaultRing = []ir.SiteID{
	ir.Grid(0, 0), ir.Grid(0, 1), ir.Grid(0, 2), ir.Grid(1, 2),
	ir.Grid(2, 2), ir.Grid(2, 1), ir.Grid(2, 0), ir.Grid(1, 0),
}

// DefaultHub is the hub of the reference wheel.
var DefaultHub = ir.Grid(1, 1)

// DefaultWheel returns the reference wheel on topo.
func DefaultWheel(topo *topology.Topology) (*Wheel, error) {
	return NewWheel(topo, DefaultHub, DefaultRing)
}

// WheelFromSpec builds the wheel a program asks for, or the reference wheel
// when spec is nil.
func WheelFromSpec(topo *topology.Topology, spec *ir.WheelSpec) (*Wheel, error) {
	if spec == nil {
		return DefaultWheel(topo)
	}
	return NewWheel(topo, spec.Hub, spec.Ring)
}
