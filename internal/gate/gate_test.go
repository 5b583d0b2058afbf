package gate

import (
	"testing"

	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

func healthyFrame() telemetry.MetricFrame {
	return telemetry.MetricFrame{Vireax: 0.995, Drift: 5e-6, Error: 0.01}
}

func unhealthyFrame() telemetry.MetricFrame {
	return telemetry.MetricFrame{Vireax: 0.985, Drift: 5e-6, Error: 0.01}
}

func TestGateInitialIsNoGo(t *testing.T) {
	s := Initial()
	if s.Status != StatusNoGo || s.ConsecutiveGo != 0 || s.ConsecutiveNoGo != 0 {
		t.Fatalf("unexpected initial state %+v", s)
	}
}

func TestGateCheckBoundsAreInclusive(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	f := telemetry.MetricFrame{Vireax: 0.99, Drift: 1e-5, Error: 0.05}

	ok, violations := g.Check(f)
	if !ok {
		t.Fatalf("expected frame on the bounds to be healthy, got %v", violations)
	}
}

func TestGateCheckEachBoundFailsAlone(t *testing.T) {
	g := NewGate(DefaultGateConfig())

	cases := map[ViolationType]telemetry.MetricFrame{
		ViolationVireax: {Vireax: 0.9899, Drift: 0, Error: 0},
		ViolationDrift:  {Vireax: 0.995, Drift: 1.01e-5, Error: 0},
		ViolationError:  {Vireax: 0.995, Drift: 0, Error: 0.051},
	}
	for want, f := range cases {
		ok, violations := g.Check(f)
		if ok {
			t.Fatalf("%s: expected unhealthy", want)
		}
		if len(violations) != 1 || violations[0].Type != want {
			t.Fatalf("%s: unexpected violations %+v", want, violations)
		}
	}
}

func TestGateCheckReportsAllViolations(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	ok, violations := g.Check(telemetry.MetricFrame{Vireax: 0.9, Drift: 1, Error: 1})
	if ok {
		t.Fatal("expected unhealthy")
	}
	if len(violations) != 3 {
		t.Fatalf("expected 3 violations, got %d", len(violations))
	}
}

func TestGateFiveHealthyFramesEarnGo(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	s := Initial()

	for i := 1; i <= 4; i++ {
		s = g.Evaluate(s, healthyFrame()).Next
		if s.Status != StatusNoGo {
			t.Fatalf("frame %d: expected NO-GO while accumulating, got %s", i, s.Status)
		}
	}
	d := g.Evaluate(s, healthyFrame())
	if d.Next.Status != StatusGo {
		t.Fatalf("expected GO after 5 healthy frames, got %s", d.Next.Status)
	}
	if !d.Transitioned {
		t.Fatal("expected transition flag")
	}
	if d.Next.ConsecutiveGo != 5 {
		t.Fatalf("expected go counter 5, got %d", d.Next.ConsecutiveGo)
	}
}

func TestGateStabilizingStaysWhileAccumulating(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	s := Reset(true)

	for i := 0; i < 4; i++ {
		s = g.Evaluate(s, healthyFrame()).Next
	}
	if s.Status != StatusStabilizing {
		t.Fatalf("expected STABILIZING below confirmation window, got %s", s.Status)
	}
}

func TestGateSingleBadFrameAfterGoStabilizes(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	s := State{Status: StatusGo, ConsecutiveGo: 9}

	d := g.Evaluate(s, unhealthyFrame())

	if d.Next.Status != StatusStabilizing {
		t.Fatalf("expected STABILIZING, got %s", d.Next.Status)
	}
	if d.Next.ConsecutiveGo != 0 || d.Next.ConsecutiveNoGo != 1 {
		t.Fatalf("unexpected counters %+v", d.Next)
	}
	if d.Healthy {
		t.Fatal("decision should be unhealthy")
	}
}

func TestGateTwoBadFramesFromAnyStateIsNoGo(t *testing.T) {
	g := NewGate(DefaultGateConfig())

	for _, start := range []Status{StatusGo, StatusStabilizing, StatusNoGo} {
		s := State{Status: start}
		s = g.Evaluate(s, unhealthyFrame()).Next
		s = g.Evaluate(s, unhealthyFrame()).Next
		if s.Status != StatusNoGo {
			t.Fatalf("from %s: expected NO-GO, got %s", start, s.Status)
		}
	}
}

func TestGateSingleBadFrameFromStabilizingKeepsStatus(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	s := g.Evaluate(Reset(true), unhealthyFrame()).Next
	if s.Status != StatusStabilizing {
		t.Fatalf("expected STABILIZING, got %s", s.Status)
	}
}

func TestGateCountersMutuallyExclusive(t *testing.T) {
	g := NewGate(DefaultGateConfig())
	s := Initial()
	pattern := []bool{true, true, false, true, false, false, true, true, true, true, true, true, false}

	for i, healthy := range pattern {
		f := unhealthyFrame()
		if healthy {
			f = healthyFrame()
		}
		s = g.Evaluate(s, f).Next
		if s.ConsecutiveGo > 0 && s.ConsecutiveNoGo > 0 {
			t.Fatalf("step %d: both counters positive %+v", i, s)
		}
	}
}

func TestGateResetZeroesCounters(t *testing.T) {
	start := Reset(true)
	stop := Reset(false)
	if start.Status != StatusStabilizing || stop.Status != StatusNoGo {
		t.Fatalf("unexpected reset statuses %s / %s", start.Status, stop.Status)
	}
	if start.ConsecutiveGo+start.ConsecutiveNoGo+stop.ConsecutiveGo+stop.ConsecutiveNoGo != 0 {
		t.Fatal("expected zeroed counters")
	}
}

func TestGateCustomWindows(t *testing.T) {
	config := DefaultGateConfig()
	config.ConfirmFrames = 2
	g := NewGate(config)

	s := g.Evaluate(Initial(), healthyFrame()).Next
	s = g.Evaluate(s, healthyFrame()).Next
	if s.Status != StatusGo {
		t.Fatalf("expected GO after 2 frames with ConfirmFrames=2, got %s", s.Status)
	}
}
