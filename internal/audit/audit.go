package audit

import (
	"math"

	"github.com/danielpatrickdp/mirror-console/internal/sim"
)

// Check names as shown on the audit panel.
const (
	CheckTraceability = "A1: Input Traceability"
	CheckConsistency  = "A2: Logic Consistency"
	CheckCalibration  = "A3: Metric Calibration"
	CheckCausality    = "Temporal Causality (Δt)"
)

// #region auditor
// Auditor derives axiomatic checks from a snapshot.
type Auditor struct {
	config AuditConfig
}

// NewAuditor creates an auditor with the given configuration.
func NewAuditor(config AuditConfig) *Auditor {
	return &Auditor{config: config}
}

// Run builds the report. Frame checks with no frame yet report their
// non-nominal verdict and a zero value.
func (a *Auditor) Run(s *sim.SimulationState) Report {
	current, ok := s.Latest()

	traceability := StatusWarn
	if ok && current.Psi > a.config.MinPsi {
		traceability = StatusPass
	}

	consistency := StatusPass
	if s.ActiveContradiction != nil {
		consistency = StatusFail
	}

	offset := math.Abs(current.Gamma - a.config.GammaTarget)
	calibration := StatusDrift
	if ok && offset < a.config.GammaTolerance {
		calibration = StatusStable
	}

	causality := StatusWarn
	if ok && current.Drift < a.config.MaxTemporalDrift {
		causality = StatusPass
	}

	contradictions := 0.0
	if s.ActiveContradiction != nil {
		contradictions = 1
	}

	checks := []Check{
		{Name: CheckTraceability, Status: traceability, Value: current.Psi},
		{Name: CheckConsistency, Status: consistency, Value: contradictions},
		{Name: CheckCalibration, Status: calibration, Value: current.Gamma},
		{Name: CheckCausality, Status: causality, Value: current.Drift},
	}

	nominal := true
	for _, c := range checks {
		if !c.Status.Nominal() {
			nominal = false
			break
		}
	}

	return Report{
		Frame:       s.CurrentFrame,
		GateStatus:  string(s.GateStatus),
		Checks:      checks,
		Convergence: vector(s.ConsecutiveGoFrames, a.config.ConfirmFrames),
		Pressure:    vector(s.ConsecutiveNoGoFrames, a.config.FailFrames),
		Nominal:     nominal,
	}
}

// #endregion auditor

func vector(count, threshold int) Vector {
	v := Vector{Count: count, Threshold: threshold}
	if threshold > 0 {
		v.Ratio = math.Min(1, float64(count)/float64(threshold))
	}
	return v
}
