package audit

// #region audit-config
// AuditConfig holds the thresholds for the axiomatic checks.
type AuditConfig struct {
	MinPsi           float64 `yaml:"min_psi"`            // A1 passes strictly above this
	GammaTarget      float64 `yaml:"gamma_target"`       // A3 center, Hz
	GammaTolerance   float64 `yaml:"gamma_tolerance"`    // A3 stable strictly inside this
	MaxTemporalDrift float64 `yaml:"max_temporal_drift"` // temporal causality passes strictly below this
	ConfirmFrames    int     `yaml:"confirm_frames"`     // convergence denominator
	FailFrames       int     `yaml:"fail_frames"`        // pressure denominator
}

// DefaultAuditConfig returns the thresholds shown on the audit panel.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		MinPsi:           0.995,
		GammaTarget:      42,
		GammaTolerance:   5,
		MaxTemporalDrift: 0.005,
		ConfirmFrames:    5,
		FailFrames:       2,
	}
}

// #endregion audit-config

// #region check
// CheckStatus is the verdict of a single check.
type CheckStatus string

const (
	StatusPass   CheckStatus = "PASS"
	StatusWarn   CheckStatus = "WARN"
	StatusFail   CheckStatus = "FAIL"
	StatusStable CheckStatus = "STABLE"
	StatusDrift  CheckStatus = "DRIFT"
)

// Nominal reports whether the status is a passing verdict.
func (s CheckStatus) Nominal() bool {
	return s == StatusPass || s == StatusStable
}

// Check is one row of the report.
type Check struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Value  float64     `json:"value"`
}

// #endregion check

// #region report
// Vector is a counter against its threshold.
type Vector struct {
	Count     int     `json:"count"`
	Threshold int     `json:"threshold"`
	Ratio     float64 `json:"ratio"` // clamped to [0, 1]
}

// Report is the audit view of one snapshot. Informational only: it never
// feeds back into the gate.
type Report struct {
	Frame       int64   `json:"frame"`
	GateStatus  string  `json:"gateStatus"`
	Checks      []Check `json:"checks"`
	Convergence Vector  `json:"convergence"`
	Pressure    Vector  `json:"pressure"`
	Nominal     bool    `json:"nominal"`
}

// #endregion report
