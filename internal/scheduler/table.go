package scheduler

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/roach88/iontrap/internal/ir"
)

// Table renders the schedule as one row per wire and one column per tick.
// An MS shows on both operand rows; idle slots render as a dot.
func (r *Result) Table() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	header := []string{"wire"}
	for _, t := range r.Ticks {
		mark := ""
		if t.Entangling() {
			mark = "*"
		}
		header = append(header, fmt.Sprintf("t%d%s", t.Index, mark))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for w := 0; w < ir.NumIons; w++ {
		row := []string{fmt.Sprintf("q%d", w)}
		for _, t := range r.Ticks {
			row = append(row, cell(t, w))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
	return b.String()
}

func cell(t Tick, wire int) string {
	for _, g := range t.Slots {
		if g == nil || !g.Touches(wire) {
			continue
		}
		if g.IsEntangling() {
			a, b := g.Pair()
			return fmt.Sprintf("MS(%d,%d)", a, b)
		}
		return string(g.Kind)
	}
	return "."
}
