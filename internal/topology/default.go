package topology

import "github.com/roach88/iontrap/internal/ir"

// Dimensions of the reference trap.
const (
	DefaultRows = 5
	DefaultCols = 7
)

// DefaultInteraction lists the Interaction coordinates of the reference trap.
var DefaultInteraction = []ir.SiteID{
	ir.Grid(1, 1), ir.Grid(1, 3), ir.Grid(3, 1),
	ir.Grid(3, 3), ir.Grid(1, 5), ir.Grid(3, 5),
}

// Default returns the 5x7 reference trap.
func Default() *Topology {
	t, err := Build(DefaultRows, DefaultCols, DefaultInteraction)
	if err != nil {
		panic(err)
	}
	return t
}
