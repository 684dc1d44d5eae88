// Package topology builds the immutable trap site graph.
//
// A trap is a rows x cols grid. Every grid coordinate is either an
// Interaction site or a Standard site; each Standard site owns one Idle
// pendant reachable only from it. Grid coordinates are joined to their right
// and down neighbours regardless of kind, which yields full 4-neighbour
// adjacency.
//
// A Topology is never mutated after Build returns and is safe for concurrent
// readers.
package topology

import (
	"fmt"
	"sort"

	"github.com/roach88/iontrap/internal/ir"
)

// Topology is the typed site graph of one trap.
type Topology struct {
	rows, cols int
	kinds      map[ir.SiteID]ir.SiteKind
	adj        map[ir.SiteID][]ir.SiteID
	sites      []ir.SiteID
}

// Build constructs a rows x cols trap with the given Interaction
// coordinates. It fails with MALFORMED_INPUT on non-positive dimensions and
// on duplicate, idle or out-of-range interaction coordinates.
func Build(rows, cols int, interaction []ir.SiteID) (*Topology, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ir.NewError(ir.CodeMalformedInput, fmt.Sprintf("trap dimensions must be positive, got %dx%d", rows, cols))
	}

	marked := make(map[ir.SiteID]bool, len(interaction))
	for _, s := range interaction {
		switch {
		case s.Idle:
			return nil, ir.NewError(ir.CodeMalformedInput, fmt.Sprintf("interaction site %s cannot be an idle pendant", s)).WithSites(s)
		case s.Row < 0 || s.Row >= rows || s.Col < 0 || s.Col >= cols:
			return nil, ir.NewError(ir.CodeMalformedInput, fmt.Sprintf("interaction site %s outside %dx%d trap", s, rows, cols)).WithSites(s)
		case marked[s]:
			return nil, ir.NewError(ir.CodeMalformedInput, fmt.Sprintf("duplicate interaction site %s", s)).WithSites(s)
		}
		marked[s] = true
	}

	t := &Topology{
		rows:  rows,
		cols:  cols,
		kinds: make(map[ir.SiteID]ir.SiteKind, 2*rows*cols),
		adj:   make(map[ir.SiteID][]ir.SiteID, 2*rows*cols),
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			id := ir.Grid(r, c)
			if marked[id] {
				t.add(id, ir.KindInteraction)
				continue
			}
			t.add(id, ir.KindStandard)
			t.add(id.Pendant(), ir.KindIdle)
			t.connect(id, id.Pendant())
		}
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols {
				t.connect(ir.Grid(r, c), ir.Grid(r, c+1))
			}
			if r+1 < rows {
				t.connect(ir.Grid(r, c), ir.Grid(r+1, c))
			}
		}
	}

	for id := range t.adj {
		sortSites(t.adj[id])
	}
	sortSites(t.sites)
	return t, nil
}

// FromSpec builds a topology from a program's trap description, falling
// back to Default when spec is nil.
func FromSpec(spec *ir.TrapSpec) (*Topology, error) {
	if spec == nil {
		return Default(), nil
	}
	return Build(spec.Rows, spec.Cols, spec.Interaction)
}

func (t *Topology) add(id ir.SiteID, kind ir.SiteKind) {
	t.kinds[id] = kind
	t.sites = append(t.sites, id)
}

func (t *Topology) connect(a, b ir.SiteID) {
	t.adj[a] = append(t.adj[a], b)
	t.adj[b] = append(t.adj[b], a)
}

// Rows returns the number of grid rows.
func (t *Topology) Rows() int { return t.rows }

// Cols returns the number of grid columns.
func (t *Topology) Cols() int { return t.cols }

// KindOf returns the kind of site and whether the site exists.
func (t *Topology) KindOf(site ir.SiteID) (ir.SiteKind, bool) {
	k, ok := t.kinds[site]
	return k, ok
}

// Contains reports whether site is a member of the topology.
func (t *Topology) Contains(site ir.SiteID) bool {
	_, ok := t.kinds[site]
	return ok
}

// Neighbors returns the sites joined to site by an edge, in row, col, pendant
// order. The returned slice must not be modified.
func (t *Topology) Neighbors(site ir.SiteID) []ir.SiteID {
	return t.adj[site]
}

// HasEdge reports whether a and b are joined by an edge.
func (t *Topology) HasEdge(a, b ir.SiteID) bool {
	for _, n := range t.adj[a] {
		if n == b {
			return true
		}
	}
	return false
}

// Sites returns every site record, in row, col, pendant order.
func (t *Topology) Sites() []ir.Site {
	out := make([]ir.Site, len(t.sites))
	for i, id := range t.sites {
		out[i] = ir.Site{ID: id, Kind: t.kinds[id]}
	}
	return out
}

// Interaction returns the Interaction sites in row, col order.
func (t *Topology) Interaction() []ir.SiteID {
	var out []ir.SiteID
	for _, id := range t.sites {
		if t.kinds[id] == ir.KindInteraction {
			out = append(out, id)
		}
	}
	return out
}

func sortSites(s []ir.SiteID) {
	sort.Slice(s, func(i, j int) bool {
		a, b := s[i], s[j]
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return !a.Idle && b.Idle
	})
}
