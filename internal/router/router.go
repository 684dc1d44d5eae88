// Package router turns a gate schedule into a routed plan on a wheel.
//
// Every ion starts on ring slot equal to its index. For each tick the router
// applies the transitions that tick needs (rotations, hub evictions, docks)
// and the snapshot left by the last of them is the one the tick's gates run
// under. Earlier transitions of the same tick become transport frames that
// execute no gates. Every transition moves each ion by at most one edge and
// never exchanges two ions, so consecutive frames are always legal moves.
//
// An MS pair stays at the hub, unmoved, for the frame after its gate; a pair
// left at the hub any longer is released, keeping at most the member needed
// by the next MS.
package router

import (
	"fmt"

	"github.com/roach88/iontrap/internal/ir"
)

// Router routes schedules on one wheel. It keeps no state between calls and
// is safe for concurrent use.
type Router struct {
	wheel     *Wheel
	maxFrames int
}

// Option configures a Router.
type Option func(*Router)

// WithMaxFrames bounds the number of frames a plan may contain. Zero means
// no bound.
func WithMaxFrames(n int) Option {
	return func(r *Router) {
		r.maxFrames = n
	}
}

// New creates a Router for wheel.
func New(wheel *Wheel, opts ...Option) *Router {
	r := &Router{wheel: wheel}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Wheel returns the router's geometry.
func (r *Router) Wheel() *Wheel {
	return r.wheel
}

// Route computes a plan for schedule. Ticks must hold valid gates with
// disjoint wires and at most one MS each.
func (r *Router) Route(schedule ir.GateSchedule) (*ir.Plan, error) {
	run := &routing{
		wheel:     r.wheel,
		asg:       NewAssignment(r.wheel.Size()),
		maxFrames: r.maxFrames,
		plan: &ir.Plan{
			Schedule:  ir.GateSchedule{},
			Positions: ir.PositionHistory{},
			Source:    []int{},
		},
	}

	for t, tick := range schedule {
		if err := checkTick(t, tick); err != nil {
			return nil, err
		}
		if err := run.tick(t, tick, nextEntangler(schedule, t+1)); err != nil {
			return nil, err
		}
	}

	if _, ok := run.lastEntangler(); ok {
		if err := run.emit(ir.Tick{}, ir.TransportFrame); err != nil {
			return nil, err
		}
	}
	return run.plan, nil
}

func checkTick(t int, tick ir.Tick) error {
	used := make(map[int]bool, ir.NumIons)
	for _, g := range tick {
		if err := g.Validate(); err != nil {
			e, _ := ir.AsError(err)
			e.Tick = t
			return e
		}
		for _, w := range g.Wires {
			if used[w] {
				return ir.TickError(ir.CodeWireConflict, t, fmt.Sprintf("wire %d used twice", w), w)
			}
			used[w] = true
		}
	}
	if n := tick.CountMS(); n > 1 {
		return ir.TickError(ir.CodeUnschedulable, t, fmt.Sprintf("%d MS gates in one tick, the hub fits one pair", n), tick.Wires()...)
	}
	return nil
}

// nextEntangler finds the first MS at or after tick from.
func nextEntangler(schedule ir.GateSchedule, from int) *ir.Gate {
	for t := from; t < len(schedule); t++ {
		if g, ok := schedule[t].Entangler(); ok {
			return &g
		}
	}
	return nil
}

// routing is the mutable state of one Route call.
type routing struct {
	wheel     *Wheel
	asg       *Assignment
	plan      *ir.Plan
	maxFrames int

	// moved is set once a transition has changed the assignment since the
	// last emitted frame.
	moved bool
}

func (r *routing) tick(t int, tick ir.Tick, next *ir.Gate) error {
	if prev, ok := r.lastEntangler(); ok {
		x, y := prev.Pair()
		_, entangling := tick.Entangler()
		if entangling || touches(tick, x) || touches(tick, y) {
			// Hold the previous pair for one frame before anything moves it.
			if err := r.emit(ir.Tick{}, ir.TransportFrame); err != nil {
				return err
			}
		}
	}

	var err error
	if ms, ok := tick.Entangler(); ok {
		a, b := ms.Pair()
		err = r.entangle(a, b)
	} else {
		err = r.rotations(tick, next)
	}
	if err != nil {
		return err
	}
	return r.emit(tick, t)
}

// entangle brings a and b together at the hub.
func (r *routing) entangle(a, b int) error {
	da, db := r.asg.Docked(a), r.asg.Docked(b)
	switch {
	case da && db:
		// Already paired at the hub; the gate runs in place.
		return nil
	case da:
		if err := r.evictHub(a); err != nil {
			return err
		}
		return r.dockSingle(b)
	case db:
		if err := r.evictHub(b); err != nil {
			return err
		}
		return r.dockSingle(a)
	default:
		return r.dockPair(a, b)
	}
}

// rotations prepares a tick without MS: docked operands leave the hub, and
// an expired pair is broken up.
func (r *routing) rotations(tick ir.Tick, next *ir.Gate) error {
	var out []int
	for _, w := range tick.Wires() {
		if r.asg.Docked(w) {
			out = append(out, w)
		}
	}

	hub := r.asg.Hub()
	if len(hub) == 2 && !r.lastHasPair(hub[0], hub[1]) {
		keep := -1
		if next != nil {
			for _, w := range next.Wires {
				if r.asg.Docked(w) {
					keep = w
					break
				}
			}
		}
		for _, ion := range hub {
			if ion != keep && !contains(out, ion) {
				out = append(out, ion)
			}
		}
	}
	return r.undock(out)
}

// dockPair docks two ring ions. Ions on equal parity are aligned by at most
// one rotation; otherwise the odd one docks first.
func (r *routing) dockPair(a, b int) error {
	if err := r.evictHub(); err != nil {
		return err
	}
	oa, ob := r.asg.odd(a), r.asg.odd(b)
	switch {
	case oa && ob:
	case !oa && !ob:
		if err := r.rotate(); err != nil {
			return err
		}
	case oa:
		if err := r.dock(a); err != nil {
			return err
		}
		return r.dockSingle(b)
	default:
		if err := r.dock(b); err != nil {
			return err
		}
		return r.dockSingle(a)
	}
	return r.dock(a, b)
}

// dockSingle docks one ring ion next to an ion already at the hub.
func (r *routing) dockSingle(ion int) error {
	if !r.asg.odd(ion) {
		if err := r.rotate(); err != nil {
			return err
		}
	}
	return r.dock(ion)
}

// evictHub clears the hub except for the exempt ions.
func (r *routing) evictHub(except ...int) error {
	var out []int
	for _, ion := range r.asg.Hub() {
		if !contains(except, ion) {
			out = append(out, ion)
		}
	}
	return r.undock(out)
}

// undock returns docked ions to the ring, one transition at a time.
func (r *routing) undock(ions []int) error {
	for {
		pending := 0
		for _, ion := range ions {
			if r.asg.Docked(ion) {
				pending++
			}
		}
		if pending == 0 {
			return nil
		}
		if err := r.advance(); err != nil {
			return err
		}
		if r.asg.release(ions) == 0 {
			return ir.NewError(ir.CodeUnschedulable, "no free ring slot to leave the hub").WithIons(ions...)
		}
	}
}

func (r *routing) rotate() error {
	if err := r.advance(); err != nil {
		return err
	}
	r.asg.rotate()
	return nil
}

func (r *routing) dock(ions ...int) error {
	if len(r.asg.hub)+len(ions) > ir.InteractionCapacity {
		return ir.NewError(ir.CodeUnschedulable, fmt.Sprintf("hub cannot hold %d more ions", len(ions))).WithSites(r.wheel.Hub)
	}
	if err := r.advance(); err != nil {
		return err
	}
	r.asg.dock(ions...)
	return nil
}

// advance starts a new transition. A transition already applied since the
// last frame is flushed as a transport frame first.
func (r *routing) advance() error {
	if r.moved {
		if err := r.emit(ir.Tick{}, ir.TransportFrame); err != nil {
			return err
		}
	}
	r.moved = true
	return nil
}

func (r *routing) emit(gates ir.Tick, source int) error {
	if r.maxFrames > 0 && len(r.plan.Schedule) >= r.maxFrames {
		return ir.NewError(ir.CodeUnschedulable, fmt.Sprintf("plan exceeds %d frames", r.maxFrames))
	}
	if gates == nil {
		gates = ir.Tick{}
	}
	r.plan.Schedule = append(r.plan.Schedule, gates)
	r.plan.Positions = append(r.plan.Positions, r.asg.Snapshot(r.wheel))
	r.plan.Source = append(r.plan.Source, source)
	r.moved = false
	return nil
}

func (r *routing) lastEntangler() (ir.Gate, bool) {
	n := len(r.plan.Schedule)
	if n == 0 {
		return ir.Gate{}, false
	}
	return r.plan.Schedule[n-1].Entangler()
}

func (r *routing) lastHasPair(a, b int) bool {
	n := len(r.plan.Schedule)
	return n > 0 && r.plan.Schedule[n-1].HasPair(a, b)
}

func touches(tick ir.Tick, wire int) bool {
	for _, g := range tick {
		if g.Touches(wire) {
			return true
		}
	}
	return false
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
