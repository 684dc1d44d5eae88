// Package metrics holds the Prometheus collectors for one engine.
//
// Each engine owns a private registry so parallel runs and tests never share
// counters.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/iontrap/internal/ir"
)

const namespace = "iontrap"

// Verification results used as the result label.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics records pipeline throughput and verification outcomes.
type Metrics struct {
	registry *prometheus.Registry

	TicksScheduled  prometheus.Counter
	FramesRouted    prometheus.Counter
	TransportFrames prometheus.Counter
	Verifications   *prometheus.CounterVec
	LastFidelity    prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TicksScheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_scheduled_total",
			Help:      "Total number of ticks produced by the scheduler",
		}),
		FramesRouted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_routed_total",
			Help:      "Total number of frames emitted by the router, transport frames included",
		}),
		TransportFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_frames_total",
			Help:      "Total number of gate-free frames inserted by the router",
		}),
		// Labels: result (ok, failed), code (empty on success)
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Total number of verifications by result and error code",
		}, []string{"result", "code"}),
		LastFidelity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_fidelity",
			Help:      "Fidelity reported by the most recent successful verification",
		}),
	}
}

// Registry exposes the collectors, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveSchedule counts the ticks of one scheduler result.
func (m *Metrics) ObserveSchedule(ticks int) {
	m.TicksScheduled.Add(float64(ticks))
}

// ObservePlan counts the frames of one routed plan.
func (m *Metrics) ObservePlan(p *ir.Plan) {
	m.FramesRouted.Add(float64(p.Frames()))
	m.TransportFrames.Add(float64(p.TransportFrames()))
}

// ObserveVerification records one verifier outcome. err is nil on success;
// fidelity is nil when no oracle ran.
func (m *Metrics) ObserveVerification(err error, fidelity *float64) {
	if err != nil {
		m.Verifications.WithLabelValues(ResultFailed, string(ir.CodeOf(err))).Inc()
	} else {
		m.Verifications.WithLabelValues(ResultOK, "").Inc()
	}
	if fidelity != nil {
		m.LastFidelity.Set(*fidelity)
	}
}

// WriteText dumps every collector in the Prometheus text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
