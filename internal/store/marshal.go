package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/iontrap/internal/ir"
)

// marshalColumn converts a plan component to canonical JSON TEXT for storage.
// Canonical form keeps stored bytes identical to what PlanHash hashed.
func marshalColumn(name string, v any) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	return string(data), nil
}

func unmarshalSchedule(data string) (ir.GateSchedule, error) {
	schedule := ir.GateSchedule{}
	if err := json.Unmarshal([]byte(data), &schedule); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}
	return schedule, nil
}

func unmarshalPositions(data string) (ir.PositionHistory, error) {
	positions := ir.PositionHistory{}
	if err := json.Unmarshal([]byte(data), &positions); err != nil {
		return nil, fmt.Errorf("unmarshal positions: %w", err)
	}
	return positions, nil
}

func unmarshalSource(data string) ([]int, error) {
	source := []int{}
	if err := json.Unmarshal([]byte(data), &source); err != nil {
		return nil, fmt.Errorf("unmarshal source: %w", err)
	}
	return source, nil
}
