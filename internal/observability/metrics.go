package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielpatrickdp/mirror-console/internal/gate"
	"github.com/danielpatrickdp/mirror-console/internal/sim"
)

var gateStatuses = []gate.Status{gate.StatusGo, gate.StatusStabilizing, gate.StatusNoGo}

// #region metrics
// Metrics exports simulation snapshots as Prometheus collectors.
type Metrics struct {
	Ticks               prometheus.Counter
	Frame               prometheus.Gauge
	GateStatus          *prometheus.GaugeVec
	ConsecutiveGo       prometheus.Gauge
	ConsecutiveNoGo     prometheus.Gauge
	Transitions         *prometheus.CounterVec
	ContradictionActive prometheus.Gauge
	Contradictions      prometheus.Counter
	Latest              *prometheus.GaugeVec
	Running             prometheus.Gauge
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "mirror_ticks_total",
			Help: "Ticks processed by the simulation driver",
		}),
		Frame: f.NewGauge(prometheus.GaugeOpts{
			Name: "mirror_current_frame",
			Help: "Next tick index to be generated",
		}),
		GateStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mirror_gate_status",
			Help: "1 for the current gate status, 0 otherwise",
		}, []string{"status"}),
		ConsecutiveGo: f.NewGauge(prometheus.GaugeOpts{
			Name: "mirror_gate_consecutive_go_frames",
			Help: "Consecutive healthy frames",
		}),
		ConsecutiveNoGo: f.NewGauge(prometheus.GaugeOpts{
			Name: "mirror_gate_consecutive_no_go_frames",
			Help: "Consecutive unhealthy frames",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mirror_gate_transitions_total",
			Help: "Gate status changes by from/to status",
		}, []string{"from", "to"}),
		ContradictionActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "mirror_contradiction_active",
			Help: "1 while a contradiction event is active",
		}),
		Contradictions: f.NewCounter(prometheus.CounterOpts{
			Name: "mirror_contradictions_total",
			Help: "Contradiction events raised",
		}),
		Latest: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mirror_frame_value",
			Help: "Latest metric frame values",
		}, []string{"metric"}),
		Running: f.NewGauge(prometheus.GaugeOpts{
			Name: "mirror_running",
			Help: "1 while the clock is advancing",
		}),
	}
}

// Observe updates collectors from one snapshot. prev may be nil.
func (m *Metrics) Observe(prev, next *sim.SimulationState) {
	if prev != nil && next.CurrentFrame > prev.CurrentFrame {
		m.Ticks.Add(float64(next.CurrentFrame - prev.CurrentFrame))
	}
	m.Frame.Set(float64(next.CurrentFrame))
	m.ConsecutiveGo.Set(float64(next.ConsecutiveGoFrames))
	m.ConsecutiveNoGo.Set(float64(next.ConsecutiveNoGoFrames))
	m.Running.Set(boolGauge(next.IsRunning))

	for _, s := range gateStatuses {
		m.GateStatus.WithLabelValues(string(s)).Set(boolGauge(s == next.GateStatus))
	}
	if prev != nil && prev.GateStatus != next.GateStatus {
		m.Transitions.WithLabelValues(string(prev.GateStatus), string(next.GateStatus)).Inc()
	}

	m.ContradictionActive.Set(boolGauge(next.ActiveContradiction != nil))
	if next.ActiveContradiction != nil && (prev == nil || prev.ActiveContradiction == nil || prev.ActiveContradiction.ID != next.ActiveContradiction.ID) {
		m.Contradictions.Inc()
	}

	if f, ok := next.Latest(); ok {
		m.Latest.WithLabelValues("gamma").Set(f.Gamma)
		m.Latest.WithLabelValues("psi").Set(f.Psi)
		m.Latest.WithLabelValues("vireax").Set(f.Vireax)
		m.Latest.WithLabelValues("drift").Set(f.Drift)
		m.Latest.WithLabelValues("error").Set(f.Error)
		m.Latest.WithLabelValues("entropy").Set(f.Entropy)
	}
}

// Follow observes snapshots until ch is closed or ctx is done.
func (m *Metrics) Follow(ctx context.Context, ch <-chan *sim.SimulationState) {
	var prev *sim.SimulationState
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-ch:
			if !ok {
				return
			}
			m.Observe(prev, next)
			prev = next
		}
	}
}

// #endregion metrics

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
