package verifier

import (
	"sort"

	"github.com/roach88/iontrap/internal/ir"
)

// DefaultThreshold is the fidelity below which a report is flagged.
const DefaultThreshold = 0.99

// Oracle scores a schedule against an ideal target.
type Oracle interface {
	Fidelity(schedule ir.GateSchedule) (float64, error)
}

// Report is the outcome of a successful verification.
type Report struct {
	Ticks          int      `json:"ticks"`
	Fidelity       *float64 `json:"fidelity,omitempty"`
	Threshold      float64  `json:"threshold"`
	BelowThreshold bool     `json:"below_threshold"`
}

type config struct {
	oracle    Oracle
	threshold float64
	strict    bool
}

func defaultConfig() config {
	return config{threshold: DefaultThreshold}
}

// Option configures Verify.
type Option func(*config)

// WithOracle scores successful timelines with o.
func WithOracle(o Oracle) Option {
	return func(c *config) {
		c.oracle = o
	}
}

// WithThreshold sets the fidelity threshold.
func WithThreshold(t float64) Option {
	return func(c *config) {
		c.threshold = t
	}
}

// WithStrictFidelity turns a fidelity below the threshold into a
// FIDELITY_BELOW_THRESHOLD failure.
func WithStrictFidelity() Option {
	return func(c *config) {
		c.strict = true
	}
}

func sortedSites(occ map[ir.SiteID][]int) []ir.SiteID {
	sites := make([]ir.SiteID, 0, len(occ))
	for s := range occ {
		sites = append(sites, s)
	}
	sort.Slice(sites, func(i, j int) bool {
		a, b := sites[i], sites[j]
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if a.Col != b.Col {
			return a.Col < b.Col
		}
		return !a.Idle && b.Idle
	})
	return sites
}
