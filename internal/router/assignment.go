package router

import (
	"sort"

	"github.com/roach88/iontrap/internal/ir"
)

const (
	docked = -1
	vacant = -1
)

// Assignment is the ring assignment of one routing run: every ion holds
// exactly one ring slot or is docked at the hub, slots are held by at most
// one ion, and at most two ions are docked.
type Assignment struct {
	slot     [ir.NumIons]int
	occupant []int
	hub      []int
}

// NewAssignment places ion i on slot i of a ring with size slots.
func NewAssignment(size int) *Assignment {
	a := &Assignment{occupant: make([]int, size)}
	for s := range a.occupant {
		a.occupant[s] = vacant
	}
	for ion := 0; ion < ir.NumIons; ion++ {
		a.slot[ion] = ion
		a.occupant[ion] = ion
	}
	return a
}

// Slot returns the ring slot of ion, or false when it is docked.
func (a *Assignment) Slot(ion int) (int, bool) {
	s := a.slot[ion]
	return s, s != docked
}

// Docked reports whether ion is at the hub.
func (a *Assignment) Docked(ion int) bool {
	return a.slot[ion] == docked
}

// Hub returns the docked ions in ascending order.
func (a *Assignment) Hub() []int {
	out := append([]int(nil), a.hub...)
	sort.Ints(out)
	return out
}

// Free returns the vacant ring slots in ascending order.
func (a *Assignment) Free() []int {
	var out []int
	for s, ion := range a.occupant {
		if ion == vacant {
			out = append(out, s)
		}
	}
	return out
}

// Snapshot resolves every ion to its trap site on w.
func (a *Assignment) Snapshot(w *Wheel) ir.Snapshot {
	snap := make(ir.Snapshot, ir.NumIons)
	for ion, s := range a.slot {
		if s == docked {
			snap[ion] = w.Hub
		} else {
			snap[ion] = w.Site(s)
		}
	}
	return snap
}

// rotate advances every ring ion by one slot. Docked ions stay put.
func (a *Assignment) rotate() {
	n := len(a.occupant)
	next := make([]int, n)
	for s := range next {
		next[s] = vacant
	}
	for ion, s := range a.slot {
		if s == docked {
			continue
		}
		a.slot[ion] = (s + 1) % n
		next[a.slot[ion]] = ion
	}
	a.occupant = next
}

// oddFree counts vacant odd slots now and after one rotation.
func (a *Assignment) oddFree() (now, rotated int) {
	for s, ion := range a.occupant {
		if ion != vacant {
			continue
		}
		if s%2 == 1 {
			now++
		} else {
			rotated++
		}
	}
	return now, rotated
}

// release moves docked ions from ions onto vacant odd slots in one
// transition, rotating the ring first when that frees more odd slots.
// It returns the number of ions moved, which is at least one whenever a
// requested ion is docked.
func (a *Assignment) release(ions []int) int {
	var targets []int
	for _, ion := range ions {
		if a.Docked(ion) {
			targets = append(targets, ion)
		}
	}
	if len(targets) == 0 {
		return 0
	}
	sort.Ints(targets)

	now, rotated := a.oddFree()
	if rotated > now {
		a.rotate()
	}

	moved := 0
	for s, ion := range a.occupant {
		if moved == len(targets) {
			break
		}
		if ion != vacant || s%2 == 0 {
			continue
		}
		a.place(targets[moved], s)
		moved++
	}
	return moved
}

func (a *Assignment) place(ion, s int) {
	a.slot[ion] = s
	a.occupant[s] = ion
	for i, h := range a.hub {
		if h == ion {
			a.hub = append(a.hub[:i], a.hub[i+1:]...)
			break
		}
	}
}

// dock moves ring ions sitting on odd slots into the hub.
func (a *Assignment) dock(ions ...int) {
	for _, ion := range ions {
		s := a.slot[ion]
		a.occupant[s] = vacant
		a.slot[ion] = docked
		a.hub = append(a.hub, ion)
	}
}

// odd reports whether ion sits on an odd ring slot.
func (a *Assignment) odd(ion int) bool {
	s, ok := a.Slot(ion)
	return ok && s%2 == 1
}
