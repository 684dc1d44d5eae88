package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan() *Plan {
	return &Plan{
		Schedule:  GateSchedule{{RX(1.5, 0)}, {MS(0.75, 0, 1)}},
		Positions: PositionHistory{{Grid(0, 0), Grid(0, 1)}, {Grid(1, 1), Grid(1, 1)}},
		Source:    []int{0, 1},
	}
}

func TestPlanHashDeterminism(t *testing.T) {
	h1, err := PlanHash(samplePlan())
	require.NoError(t, err)
	h2, err := PlanHash(samplePlan())
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "PlanHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestPlanHashChangesWithInput(t *testing.T) {
	base := MustPlanHash(samplePlan())

	moved := samplePlan()
	moved.Positions[0][1] = Grid(0, 2)

	angle := samplePlan()
	angle.Schedule[0][0].Angle = 1.25

	assert.NotEqual(t, base, MustPlanHash(moved), "positions are part of identity")
	assert.NotEqual(t, base, MustPlanHash(angle), "angles are part of identity")
}

func TestHashDomainSeparation(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainPlan, data), hashWithDomain(DomainProgram, data))
}

func TestProgramHash(t *testing.T) {
	p := &Program{Name: "bell", Target: TargetProgram, Gates: []Gate{RY(1.5707963267948966, 0), MS(0.7853981633974483, 0, 1)}}
	h, err := ProgramHash(p)
	require.NoError(t, err)
	assert.Len(t, h, 64)

	p.Name = "other"
	h2, err := ProgramHash(p)
	require.NoError(t, err)
	assert.NotEqual(t, h, h2)
}

func TestRunID(t *testing.T) {
	a, err := RunID("flow-1", "abc", 3)
	require.NoError(t, err)
	b, err := RunID("flow-1", "abc", 3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := RunID("flow-1", "abc", 4)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
