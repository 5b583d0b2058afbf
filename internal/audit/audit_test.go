package audit

import (
	"testing"

	"github.com/danielpatrickdp/mirror-console/internal/contradiction"
	"github.com/danielpatrickdp/mirror-console/internal/gate"
	"github.com/danielpatrickdp/mirror-console/internal/sim"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

func snapshotWith(f telemetry.MetricFrame) *sim.SimulationState {
	return &sim.SimulationState{
		IsRunning:    true,
		CurrentFrame: f.Timestamp + 1,
		GateStatus:   gate.StatusStabilizing,
		Metrics:      []telemetry.MetricFrame{f},
	}
}

func statusOf(r Report, name string) CheckStatus {
	for _, c := range r.Checks {
		if c.Name == name {
			return c.Status
		}
	}
	return ""
}

func TestAuditor_NominalFrame(t *testing.T) {
	a := NewAuditor(DefaultAuditConfig())
	r := a.Run(snapshotWith(telemetry.MetricFrame{Timestamp: 10, Gamma: 42, Psi: 0.998, Drift: 5e-6}))

	if !r.Nominal {
		t.Fatalf("expected nominal report, got %+v", r.Checks)
	}
	if len(r.Checks) != 4 {
		t.Fatalf("expected 4 checks, got %d", len(r.Checks))
	}
	if r.Frame != 11 {
		t.Errorf("expected frame 11, got %d", r.Frame)
	}
}

func TestAuditor_PsiOnThresholdWarns(t *testing.T) {
	a := NewAuditor(DefaultAuditConfig())
	r := a.Run(snapshotWith(telemetry.MetricFrame{Gamma: 42, Psi: 0.995, Drift: 5e-6}))

	if got := statusOf(r, CheckTraceability); got != StatusWarn {
		t.Errorf("expected WARN at psi == 0.995, got %s", got)
	}
	if r.Nominal {
		t.Error("expected non-nominal report")
	}
}

func TestAuditor_GammaCalibration(t *testing.T) {
	a := NewAuditor(DefaultAuditConfig())

	if got := statusOf(a.Run(snapshotWith(telemetry.MetricFrame{Gamma: 46.9, Psi: 1})), CheckCalibration); got != StatusStable {
		t.Errorf("expected STABLE at 46.9, got %s", got)
	}
	if got := statusOf(a.Run(snapshotWith(telemetry.MetricFrame{Gamma: 37, Psi: 1})), CheckCalibration); got != StatusDrift {
		t.Errorf("expected DRIFT at 37, got %s", got)
	}
}

func TestAuditor_ContradictionFailsConsistency(t *testing.T) {
	a := NewAuditor(DefaultAuditConfig())
	s := snapshotWith(telemetry.MetricFrame{Timestamp: 300, Gamma: 42, Psi: 1})
	s.ActiveContradiction = contradiction.NewEvent(300)

	r := a.Run(s)
	if got := statusOf(r, CheckConsistency); got != StatusFail {
		t.Errorf("expected FAIL, got %s", got)
	}
}

func TestAuditor_EmptyHistory(t *testing.T) {
	a := NewAuditor(DefaultAuditConfig())
	r := a.Run(&sim.SimulationState{GateStatus: gate.StatusNoGo})

	if got := statusOf(r, CheckTraceability); got != StatusWarn {
		t.Errorf("traceability: expected WARN, got %s", got)
	}
	if got := statusOf(r, CheckCalibration); got != StatusDrift {
		t.Errorf("calibration: expected DRIFT, got %s", got)
	}
	if got := statusOf(r, CheckCausality); got != StatusWarn {
		t.Errorf("causality: expected WARN, got %s", got)
	}
	if got := statusOf(r, CheckConsistency); got != StatusPass {
		t.Errorf("consistency: expected PASS, got %s", got)
	}
}

func TestAuditor_VectorsClamp(t *testing.T) {
	a := NewAuditor(DefaultAuditConfig())
	s := snapshotWith(telemetry.MetricFrame{Gamma: 42, Psi: 1})
	s.ConsecutiveGoFrames = 12

	r := a.Run(s)
	if r.Convergence.Ratio != 1 || r.Convergence.Count != 12 || r.Convergence.Threshold != 5 {
		t.Errorf("unexpected convergence %+v", r.Convergence)
	}
	if r.Pressure.Ratio != 0 {
		t.Errorf("expected zero pressure, got %+v", r.Pressure)
	}
}
