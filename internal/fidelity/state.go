// Package fidelity is the reference oracle: an ideal state-vector simulator
// for the RX/RY/MS gate set on N ions.
//
// Wire 0 is the most significant bit of the basis index. MS(φ) is applied as
// the Ising coupling exp(-i φ/2 X⊗X). No noise is modelled.
package fidelity

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/roach88/iontrap/internal/ir"
)

// Dim is the dimension of the N-ion state space.
const Dim = 1 << ir.NumIons

// State is a normalized amplitude vector of length Dim.
type State []complex128

// Ground returns |0…0⟩.
func Ground() State {
	s := make(State, Dim)
	s[0] = 1
	return s
}

func mask(wire int) int {
	return 1 << (ir.NumIons - 1 - wire)
}

// Apply applies g to s in place. g must be valid.
func (s State) Apply(g ir.Gate) {
	c := complex(math.Cos(g.Angle/2), 0)
	sn := math.Sin(g.Angle / 2)

	switch g.Kind {
	case ir.GateRX:
		m := mask(g.Wire())
		is := complex(0, -sn)
		for idx := range s {
			if idx&m != 0 {
				continue
			}
			a0, a1 := s[idx], s[idx|m]
			s[idx] = c*a0 + is*a1
			s[idx|m] = is*a0 + c*a1
		}
	case ir.GateRY:
		m := mask(g.Wire())
		r := complex(sn, 0)
		for idx := range s {
			if idx&m != 0 {
				continue
			}
			a0, a1 := s[idx], s[idx|m]
			s[idx] = c*a0 - r*a1
			s[idx|m] = r*a0 + c*a1
		}
	case ir.GateMS:
		a, b := g.Pair()
		flip := mask(a) | mask(b)
		is := complex(0, -sn)
		old := append(State(nil), s...)
		for idx := range s {
			s[idx] = c*old[idx] + is*old[idx^flip]
		}
	}
}

// Norm returns ⟨s|s⟩.
func (s State) Norm() float64 {
	var n float64
	for _, a := range s {
		n += real(a)*real(a) + imag(a)*imag(a)
	}
	return n
}

// Overlap returns |⟨a|b⟩|², the fidelity of two pure states.
func Overlap(a, b State) float64 {
	var inner complex128
	for i := range a {
		inner += cmplx.Conj(a[i]) * b[i]
	}
	abs := cmplx.Abs(inner)
	return abs * abs
}

// RealizeGates applies gates in order to |0…0⟩.
func RealizeGates(gates []ir.Gate) (State, error) {
	s := Ground()
	for i, g := range gates {
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("gate %d: %w", i, err)
		}
		s.Apply(g)
	}
	return s, nil
}

// Realize runs a schedule tick by tick from |0…0⟩. Gates within a tick act
// on disjoint wires, so their order inside the tick does not matter.
func Realize(schedule ir.GateSchedule) (State, error) {
	return RealizeGates(schedule.Flatten())
}

// QFT returns the quantum Fourier transform of |0…0⟩ over the first n
// wires: a uniform superposition over those wires with the rest left in |0⟩.
func QFT(n int) (State, error) {
	if n < 1 || n > ir.NumIons {
		return nil, fmt.Errorf("qft width %d outside [1, %d]", n, ir.NumIons)
	}
	s := make(State, Dim)
	amp := complex(1/math.Sqrt(float64(int(1)<<n)), 0)
	low := ir.NumIons - n
	for idx := range s {
		if idx&((1<<low)-1) == 0 {
			s[idx] = amp
		}
	}
	return s, nil
}
