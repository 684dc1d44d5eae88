package scheduler

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/iontrap/internal/ir"
	"github.com/roach88/iontrap/internal/testutil"
)

func TestScheduleEmpty(t *testing.T) {
	res, err := Schedule(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Ticks)
	assert.Empty(t, res.Schedule())
}

func TestSchedulePhaseAndCarryOver(t *testing.T) {
	gates := []ir.Gate{ir.RX(0.1, 0), ir.MS(0.2, 0, 1), ir.RX(0.3, 1)}

	res, err := Schedule(gates)
	require.NoError(t, err)

	// t0: RX(0) is out of phase and reserves wire 0, so the MS waits.
	// t3: MS(0,1). t4: wires 0 and 1 carried over. t5: RX(1).
	want := ir.GateSchedule{
		{},
		{ir.RX(0.1, 0)},
		{},
		{ir.MS(0.2, 0, 1)},
		{},
		{ir.RX(0.3, 1)},
	}
	assert.Equal(t, want, res.Schedule())
}

func TestScheduleSkippedGateReservesBothWires(t *testing.T) {
	// In a rotation tick the MS cannot run, but it must still block wire 2
	// so that RY(2) does not overtake it.
	gates := []ir.Gate{ir.RX(0.1, 1), ir.MS(0.2, 1, 2), ir.RY(0.3, 2), ir.RY(0.4, 3)}

	res, err := Schedule(gates)
	require.NoError(t, err)

	sched := res.Schedule()
	require.GreaterOrEqual(t, len(sched), 2)
	assert.Equal(t, ir.Tick{ir.RX(0.1, 1), ir.RY(0.4, 3)}, sched[1])

	order := wireSequence(res.Flatten())
	assert.Equal(t, testutil.WireOrder(gates), order)
}

func TestScheduleSlots(t *testing.T) {
	res, err := Schedule([]ir.Gate{ir.MS(0.5, 4, 2), ir.MS(0.5, 0, 7)})
	require.NoError(t, err)
	require.Len(t, res.Ticks, 1)

	tick := res.Ticks[0]
	require.NotNil(t, tick.Slots[4], "MS is stored under its first operand")
	assert.Nil(t, tick.Slots[2])
	assert.True(t, tick.Occupied(2))
	assert.False(t, tick.Occupied(3))
	assert.False(t, tick.Full())
	assert.True(t, tick.Entangling())
}

func TestScheduleEntanglingLimit(t *testing.T) {
	gates := []ir.Gate{ir.MS(0.5, 0, 1), ir.MS(0.5, 2, 3)}

	res, err := Schedule(gates)
	require.NoError(t, err)
	assert.Len(t, res.Ticks, 1)

	res, err = Schedule(gates, WithEntanglingLimit(1))
	require.NoError(t, err)
	sched := res.Schedule()
	require.Len(t, sched, 4)
	assert.Equal(t, ir.Tick{ir.MS(0.5, 0, 1)}, sched[0])
	assert.Equal(t, ir.Tick{ir.MS(0.5, 2, 3)}, sched[3])
}

func TestScheduleFullTickStopsScan(t *testing.T) {
	gates := []ir.Gate{
		ir.MS(0.1, 0, 1), ir.MS(0.1, 2, 3), ir.MS(0.1, 4, 5), ir.MS(0.1, 6, 7),
		ir.RX(0.2, 0),
	}
	res, err := Schedule(gates)
	require.NoError(t, err)
	require.Len(t, res.Ticks, 3)
	assert.True(t, res.Ticks[0].Full())
	assert.Equal(t, 4, res.Ticks[0].Ops().CountMS())
	assert.Empty(t, res.Ticks[1].Ops(), "wire 0 is carried over")
	assert.Equal(t, ir.Tick{ir.RX(0.2, 0)}, res.Ticks[2].Ops())
}

func TestScheduleMalformed(t *testing.T) {
	tests := []struct {
		name string
		gate ir.Gate
	}{
		{"unknown kind", ir.Gate{Kind: "CNOT", Wires: []int{0, 1}}},
		{"wire out of range", ir.RX(0.1, 8)},
		{"duplicate operands", ir.MS(0.1, 2, 2)},
		{"nan angle", ir.RY(math.NaN(), 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Schedule([]ir.Gate{ir.RX(0.1, 0), tt.gate})
			require.Error(t, err)
			assert.Equal(t, ir.CodeMalformedInput, ir.CodeOf(err))
			assert.Contains(t, err.Error(), "gate 1")
		})
	}
}

func TestScheduleProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		gates := testutil.RandomGates(rng, rng.Intn(40))
		opts := []Option{}
		if iter%2 == 1 {
			opts = append(opts, WithEntanglingLimit(1))
		}

		res, err := Schedule(gates, opts...)
		require.NoError(t, err, "iteration %d", iter)

		for i, tick := range res.Ticks {
			assert.Equal(t, i, tick.Index)
			seen := map[int]bool{}
			for _, g := range tick.Ops() {
				// phase rule
				assert.Equal(t, IsEntangling(i), g.IsEntangling(), "iteration %d tick %d: %s", iter, i, g)
				for _, w := range g.Wires {
					assert.False(t, seen[w], "iteration %d tick %d reuses wire %d", iter, i, w)
					seen[w] = true
				}
			}
			if iter%2 == 1 {
				assert.LessOrEqual(t, tick.Ops().CountMS(), 1)
			}
			if i > 0 {
				for _, g := range res.Ticks[i-1].Ops() {
					if !g.IsEntangling() {
						continue
					}
					a, b := g.Pair()
					assert.False(t, tick.Occupied(a) || tick.Occupied(b), "iteration %d tick %d ignores carry-over", iter, i)
				}
			}
		}

		flat := res.Flatten()
		assert.ElementsMatch(t, gates, flat, "iteration %d loses or duplicates gates", iter)
		assert.Equal(t, testutil.WireOrder(gates), wireSequence(flat), "iteration %d reorders a wire", iter)
	}
}

func TestTable(t *testing.T) {
	res, err := Schedule([]ir.Gate{ir.MS(0.2, 0, 1), ir.RX(0.1, 2)})
	require.NoError(t, err)

	table := res.Table()
	assert.Contains(t, table, "t0*")
	assert.Contains(t, table, "MS(0,1)")
	assert.Contains(t, table, "RX")
}

func wireSequence(gates []ir.Gate) [ir.NumIons][]ir.Gate {
	return testutil.WireOrder(gates)
}
