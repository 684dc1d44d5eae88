// Package verifier checks that a (positions, schedule) timeline is
// physically legal on a trap.
//
// Verify is a pure function. It runs its rules in a fixed order, each over
// the whole timeline, and reports the first violation as an *ir.Error:
//
//  1. equal lengths                       LENGTH_MISMATCH
//  2. snapshot width, site membership     MALFORMED_INPUT, INVALID_SITE
//  3. moves follow edges                  ILLEGAL_MOVE
//  4. no exchange across an edge          ILLEGAL_SWAP
//  5. gate validity, unique wires         MALFORMED_INPUT, WIRE_CONFLICT
//  6. MS co-location and stillness        GATE_SITE_MISMATCH, INTERACTION_DURATION_VIOLATION
//  7. rotations on standard sites         GATE_SITE_MISMATCH
//  8. overlap evidence                    OVERLAP_VIOLATION
//  9. interaction capacity                OVERLAP_VIOLATION
//
// Rules 8 and 9 are evaluated together per tick, capacity first.
package verifier

import (
	"fmt"

	"github.com/roach88/iontrap/internal/ir"
	"github.com/roach88/iontrap/internal/topology"
)

// Verify checks positions against schedule on topo. On success it returns a
// report, including the oracle's fidelity when one is configured.
func Verify(positions ir.PositionHistory, schedule ir.GateSchedule, topo *topology.Topology, opts ...Option) (*Report, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	v := &checker{positions: positions, schedule: schedule, topo: topo}
	rules := []func() error{
		v.lengths,
		v.membership,
		v.moves,
		v.swaps,
		v.gates,
		v.entanglers,
		v.rotations,
		v.overlaps,
	}
	for _, rule := range rules {
		if err := rule(); err != nil {
			return nil, err
		}
	}

	report := &Report{Ticks: len(schedule), Threshold: cfg.threshold}
	if cfg.oracle == nil {
		return report, nil
	}
	f, err := cfg.oracle.Fidelity(schedule)
	if err != nil {
		return nil, fmt.Errorf("fidelity oracle: %w", err)
	}
	report.Fidelity = &f
	report.BelowThreshold = f < cfg.threshold
	if report.BelowThreshold && cfg.strict {
		return report, ir.NewError(ir.CodeFidelityBelowThreshold,
			fmt.Sprintf("fidelity %.6f below threshold %.6f", f, cfg.threshold))
	}
	return report, nil
}

type checker struct {
	positions ir.PositionHistory
	schedule  ir.GateSchedule
	topo      *topology.Topology
}

func (v *checker) kind(site ir.SiteID) ir.SiteKind {
	k, _ := v.topo.KindOf(site)
	return k
}

func (v *checker) lengths() error {
	if len(v.positions) != len(v.schedule) {
		return ir.NewError(ir.CodeLengthMismatch,
			fmt.Sprintf("%d snapshots for %d ticks", len(v.positions), len(v.schedule)))
	}
	return nil
}

func (v *checker) membership() error {
	for t, snap := range v.positions {
		if len(snap) != ir.NumIons {
			return ir.TickError(ir.CodeMalformedInput, t,
				fmt.Sprintf("snapshot has %d ions, want %d", len(snap), ir.NumIons))
		}
		for ion, site := range snap {
			if !v.topo.Contains(site) {
				return ir.TickError(ir.CodeInvalidSite, t,
					fmt.Sprintf("ion %d at %s, which is not a trap site", ion, site), ion).WithSites(site)
			}
		}
	}
	return nil
}

func (v *checker) moves() error {
	for t := 1; t < len(v.positions); t++ {
		prev, cur := v.positions[t-1], v.positions[t]
		for ion := range cur {
			if prev[ion] != cur[ion] && !v.topo.HasEdge(prev[ion], cur[ion]) {
				return ir.TickError(ir.CodeIllegalMove, t,
					fmt.Sprintf("ion %d jumps from %s to %s", ion, prev[ion], cur[ion]), ion).WithSites(prev[ion], cur[ion])
			}
		}
	}
	return nil
}

func (v *checker) swaps() error {
	for t := 1; t < len(v.positions); t++ {
		prev, cur := v.positions[t-1], v.positions[t]
		for i := range cur {
			for j := i + 1; j < len(cur); j++ {
				if prev[i] == prev[j] || prev[i] == cur[i] {
					continue
				}
				if prev[i] == cur[j] && prev[j] == cur[i] {
					return ir.TickError(ir.CodeIllegalSwap, t,
						fmt.Sprintf("ions %d and %d exchange %s and %s", i, j, prev[i], prev[j]), i, j).WithSites(prev[i], prev[j])
				}
			}
		}
	}
	return nil
}

func (v *checker) gates() error {
	for t, tick := range v.schedule {
		used := make(map[int]bool, ir.NumIons)
		for _, g := range tick {
			if err := g.Validate(); err != nil {
				e, _ := ir.AsError(err)
				e.Tick = t
				return e
			}
			for _, w := range g.Wires {
				if used[w] {
					return ir.TickError(ir.CodeWireConflict, t, fmt.Sprintf("wire %d used by two gates", w), w)
				}
				used[w] = true
			}
		}
	}
	return nil
}

func (v *checker) entanglers() error {
	for t, tick := range v.schedule {
		snap := v.positions[t]
		for _, g := range tick {
			if !g.IsEntangling() {
				continue
			}
			a, b := g.Pair()
			site := snap[a]
			if snap[b] != site {
				return ir.TickError(ir.CodeGateSiteMismatch, t,
					fmt.Sprintf("MS operands %d and %d sit at %s and %s", a, b, snap[a], snap[b]), a, b).WithSites(snap[a], snap[b])
			}
			if v.kind(site) != ir.KindInteraction {
				return ir.TickError(ir.CodeGateSiteMismatch, t,
					fmt.Sprintf("MS at %s, which is a %s site", site, v.kind(site)), a, b).WithSites(site)
			}
			if t+1 >= len(v.positions) {
				return ir.TickError(ir.CodeInteractionDuration, t,
					"MS in the last tick has no following tick to complete in", a, b).WithSites(site)
			}
			next := v.positions[t+1]
			if next[a] != site || next[b] != site {
				return ir.TickError(ir.CodeInteractionDuration, t+1,
					fmt.Sprintf("MS operands %d and %d leave %s during the following tick", a, b, site), a, b).WithSites(site)
			}
		}
	}
	return nil
}

func (v *checker) rotations() error {
	for t, tick := range v.schedule {
		for _, g := range tick {
			if g.IsEntangling() {
				continue
			}
			w := g.Wire()
			site := v.positions[t][w]
			if k := v.kind(site); k != ir.KindStandard {
				return ir.TickError(ir.CodeGateSiteMismatch, t,
					fmt.Sprintf("%s on ion %d at %s, which is a %s site", g.Kind, w, site, k), w).WithSites(site)
			}
		}
	}
	return nil
}

func (v *checker) overlaps() error {
	for t, snap := range v.positions {
		occ := snap.Occupancy()

		for _, site := range sortedSites(occ) {
			if ions := occ[site]; v.kind(site) == ir.KindInteraction && len(ions) > ir.InteractionCapacity {
				return ir.TickError(ir.CodeOverlapViolation, t,
					fmt.Sprintf("%d ions at interaction site %s", len(ions), site), ions...).WithSites(site)
			}
		}

		for _, site := range sortedSites(occ) {
			ions := occ[site]
			if v.kind(site) == ir.KindStandard {
				if parked, ok := occ[site.Pendant()]; ok {
					return ir.TickError(ir.CodeOverlapViolation, t,
						fmt.Sprintf("ion %d at %s overlaps ion %d on its idle pendant", ions[0], site, parked[0]), ions[0], parked[0]).WithSites(site, site.Pendant())
				}
			}
			if len(ions) < 2 {
				continue
			}
			if v.kind(site) != ir.KindInteraction || len(ions) != 2 {
				return ir.TickError(ir.CodeOverlapViolation, t,
					fmt.Sprintf("ions %v share %s site %s", ions, v.kind(site), site), ions...).WithSites(site)
			}
			here := v.schedule[t].HasPair(ions[0], ions[1])
			before := t > 0 && v.schedule[t-1].HasPair(ions[0], ions[1])
			if here == before {
				msg := "no MS between them in this or the previous tick"
				if here {
					msg = "MS between them in both this and the previous tick"
				}
				return ir.TickError(ir.CodeOverlapViolation, t,
					fmt.Sprintf("ions %d and %d share %s with %s", ions[0], ions[1], site, msg), ions...).WithSites(site)
			}
		}
	}
	return nil
}
