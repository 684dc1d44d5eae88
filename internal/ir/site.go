package ir

import (
	"encoding/json"
	"fmt"
)

// SiteKind classifies a trap site.
type SiteKind string

const (
	// KindStandard sites support single-operand gates.
	KindStandard SiteKind = "standard"

	// KindInteraction sites support MS gates and hold up to two ions.
	KindInteraction SiteKind = "interaction"

	// KindIdle sites are parking pendants; no gate may run there.
	KindIdle SiteKind = "idle"
)

// InteractionCapacity is the maximum number of ions on an Interaction site.
const InteractionCapacity = 2

// SiteID identifies a trap site: a grid coordinate, or the idle pendant
// attached to that coordinate when Idle is set.
type SiteID struct {
	Row  int  `json:"row"`
	Col  int  `json:"col"`
	Idle bool `json:"idle,omitempty"`
}

// Grid returns the grid coordinate (row, col).
func Grid(row, col int) SiteID {
	return SiteID{Row: row, Col: col}
}

// IdleOf returns the idle pendant of the grid coordinate (row, col).
func IdleOf(row, col int) SiteID {
	return SiteID{Row: row, Col: col, Idle: true}
}

// Pendant returns the idle pendant attached to s's grid coordinate.
func (s SiteID) Pendant() SiteID {
	return SiteID{Row: s.Row, Col: s.Col, Idle: true}
}

// Base returns the grid coordinate s belongs to.
func (s SiteID) Base() SiteID {
	return SiteID{Row: s.Row, Col: s.Col}
}

// String renders (r,c) or (r,c,idle).
func (s SiteID) String() string {
	if s.Idle {
		return fmt.Sprintf("(%d,%d,idle)", s.Row, s.Col)
	}
	return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
}

// Site is a site record: identity plus kind.
type Site struct {
	ID   SiteID   `json:"id"`
	Kind SiteKind `json:"kind"`
}

// Snapshot maps each ion (by index) to its site at one tick.
type Snapshot []SiteID

// PositionHistory is one snapshot per tick.
type PositionHistory []Snapshot

// Clone returns a copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// Occupancy groups ions by the site they occupy.
func (s Snapshot) Occupancy() map[SiteID][]int {
	occ := make(map[SiteID][]int, len(s))
	for ion, site := range s {
		occ[site] = append(occ[site], ion)
	}
	return occ
}

// UnmarshalJSON accepts the record form {"row","col","idle"} as well as the
// compact array form [r, c] / [r, c, "idle"].
func (s *SiteID) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err == nil {
		return s.fromArray(arr)
	}
	type plain SiteID
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return NewError(CodeMalformedInput, fmt.Sprintf("invalid site %s: %v", string(data), err))
	}
	*s = SiteID(p)
	return nil
}

func (s *SiteID) fromArray(arr []json.RawMessage) error {
	if len(arr) != 2 && len(arr) != 3 {
		return NewError(CodeMalformedInput, fmt.Sprintf("site must have 2 or 3 elements, got %d", len(arr)))
	}
	var row, col int
	if err := json.Unmarshal(arr[0], &row); err != nil {
		return NewError(CodeMalformedInput, "site row must be an integer")
	}
	if err := json.Unmarshal(arr[1], &col); err != nil {
		return NewError(CodeMalformedInput, "site col must be an integer")
	}
	id := SiteID{Row: row, Col: col}
	if len(arr) == 3 {
		var tag string
		if err := json.Unmarshal(arr[2], &tag); err != nil || tag != "idle" {
			return NewError(CodeMalformedInput, "third site element must be \"idle\"")
		}
		id.Idle = true
	}
	*s = id
	return nil
}
