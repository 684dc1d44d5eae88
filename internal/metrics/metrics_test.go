package metrics

import (
	"bytes"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/iontrap/internal/ir"
)

func TestObservePipeline(t *testing.T) {
	m := New()

	m.ObserveSchedule(4)
	m.ObservePlan(&ir.Plan{
		Schedule:  make(ir.GateSchedule, 3),
		Positions: make([]ir.Snapshot, 3),
		Source:    []int{ir.TransportFrame, 0, ir.TransportFrame},
	})

	assert.Equal(t, 4.0, promtest.ToFloat64(m.TicksScheduled))
	assert.Equal(t, 3.0, promtest.ToFloat64(m.FramesRouted))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.TransportFrames))
}

func TestObserveVerification(t *testing.T) {
	m := New()
	f := 0.97

	m.ObserveVerification(nil, &f)
	m.ObserveVerification(ir.TickError(ir.CodeIllegalMove, 3, "jump"), nil)
	m.ObserveVerification(ir.TickError(ir.CodeIllegalMove, 5, "jump"), nil)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.Verifications.WithLabelValues(ResultOK, "")))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.Verifications.WithLabelValues(ResultFailed, string(ir.CodeIllegalMove))))
	assert.Equal(t, 0.97, promtest.ToFloat64(m.LastFidelity))
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ObserveSchedule(2)
	assert.Zero(t, promtest.ToFloat64(b.TicksScheduled))
}

func TestWriteText(t *testing.T) {
	m := New()
	m.ObserveSchedule(7)

	var buf bytes.Buffer
	require.NoError(t, m.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "# TYPE iontrap_ticks_scheduled_total counter")
	assert.Contains(t, out, "iontrap_ticks_scheduled_total 7")
	assert.Contains(t, out, "iontrap_last_fidelity 0")
}
