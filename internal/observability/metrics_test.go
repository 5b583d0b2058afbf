package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielpatrickdp/mirror-console/internal/contradiction"
	"github.com/danielpatrickdp/mirror-console/internal/gate"
	"github.com/danielpatrickdp/mirror-console/internal/sim"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

func TestMetrics_ObserveTransitions(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	s0 := &sim.SimulationState{GateStatus: gate.StatusNoGo}
	s1 := &sim.SimulationState{IsRunning: true, GateStatus: gate.StatusStabilizing}
	s2 := &sim.SimulationState{
		IsRunning:           true,
		CurrentFrame:        5,
		GateStatus:          gate.StatusGo,
		ConsecutiveGoFrames: 5,
		Metrics:             []telemetry.MetricFrame{{Timestamp: 4, Gamma: 43.5, Vireax: 0.996}},
		ActiveContradiction: contradiction.NewEvent(300),
	}

	m.Observe(nil, s0)
	m.Observe(s0, s1)
	m.Observe(s1, s2)
	m.Observe(s2, s2)

	if got := testutil.ToFloat64(m.Ticks); got != 5 {
		t.Errorf("ticks: expected 5, got %v", got)
	}
	if got := testutil.ToFloat64(m.GateStatus.WithLabelValues("GO")); got != 1 {
		t.Errorf("gate GO: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.GateStatus.WithLabelValues("NO-GO")); got != 0 {
		t.Errorf("gate NO-GO: expected 0, got %v", got)
	}
	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("STABILIZING", "GO")); got != 1 {
		t.Errorf("transition STABILIZING->GO: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.Contradictions); got != 1 {
		t.Errorf("contradictions: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.Latest.WithLabelValues("gamma")); got != 43.5 {
		t.Errorf("gamma: expected 43.5, got %v", got)
	}
	if got := testutil.ToFloat64(m.Running); got != 1 {
		t.Errorf("running: expected 1, got %v", got)
	}
}

func TestMetrics_FollowReturnsOnClose(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	ch := make(chan *sim.SimulationState, 2)
	ch <- &sim.SimulationState{GateStatus: gate.StatusNoGo}
	ch <- &sim.SimulationState{IsRunning: true, CurrentFrame: 3, GateStatus: gate.StatusStabilizing}
	close(ch)

	m.Follow(context.Background(), ch)

	if got := testutil.ToFloat64(m.Frame); got != 3 {
		t.Errorf("frame: expected 3, got %v", got)
	}
	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("NO-GO", "STABILIZING")); got != 1 {
		t.Errorf("transition: expected 1, got %v", got)
	}
}

func TestSetup_DisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "mirror-test", TracingConfig{Enabled: true})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
