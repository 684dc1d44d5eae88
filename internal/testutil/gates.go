package testutil

import (
	"math"
	"math/rand"

	"github.com/roach88/iontrap/internal/ir"
)

// RandomGates returns n valid gates drawn from rng. Roughly one gate in
// three is an MS on two distinct random wires; the rest are RX or RY with a
// random angle in [-π, π).
//
// The same seed always yields the same list, so property tests stay
// reproducible.
func RandomGates(rng *rand.Rand, n int) []ir.Gate {
	gates := make([]ir.Gate, 0, n)
	for i := 0; i < n; i++ {
		angle := (rng.Float64()*2 - 1) * math.Pi
		switch rng.Intn(3) {
		case 0:
			a := rng.Intn(ir.NumIons)
			b := rng.Intn(ir.NumIons - 1)
			if b >= a {
				b++
			}
			gates = append(gates, ir.MS(angle, a, b))
		case 1:
			gates = append(gates, ir.RX(angle, rng.Intn(ir.NumIons)))
		default:
			gates = append(gates, ir.RY(angle, rng.Intn(ir.NumIons)))
		}
	}
	return gates
}

// WireOrder returns, for each wire, the gates acting on it in list order.
func WireOrder(gates []ir.Gate) [ir.NumIons][]ir.Gate {
	var out [ir.NumIons][]ir.Gate
	for _, g := range gates {
		for _, w := range g.Wires {
			out[w] = append(out[w], g)
		}
	}
	return out
}
