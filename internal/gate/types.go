package gate

// #region status
// Status is the gate's health classification.
type Status string

const (
	StatusGo          Status = "GO"
	StatusStabilizing Status = "STABILIZING"
	StatusNoGo        Status = "NO-GO"
)

// #endregion status

// #region violation-type
// ViolationType enumerates the health bounds a frame can break.
type ViolationType string

const (
	ViolationVireax ViolationType = "vireax_below_min"
	ViolationDrift  ViolationType = "drift_above_max"
	ViolationError  ViolationType = "error_above_max"
)

// #endregion violation-type

// #region violation
// Violation records one failed health bound for a frame.
type Violation struct {
	Type   ViolationType
	Reason string
}

// #endregion violation

// #region gate-config
// GateConfig holds the health bounds and hysteresis windows.
type GateConfig struct {
	MinVireax     float64 `yaml:"min_vireax"`
	MaxDrift      float64 `yaml:"max_drift"` // seconds
	MaxError      float64 `yaml:"max_error"`
	ConfirmFrames int     `yaml:"confirm_frames"` // consecutive healthy frames to earn GO
	FailFrames    int     `yaml:"fail_frames"`    // consecutive unhealthy frames to drop to NO-GO
}

// DefaultGateConfig returns the production bounds: five frames to earn GO,
// two to lose it.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinVireax:     0.99,
		MaxDrift:      1e-5,
		MaxError:      0.05,
		ConfirmFrames: 5,
		FailFrames:    2,
	}
}

// #endregion gate-config

// #region gate-state
// State is the gate's status plus its hysteresis counters. Values are only
// produced by Initial, Reset and Gate.Evaluate; at most one counter is
// nonzero at any time.
type State struct {
	Status          Status `json:"gate_status"`
	ConsecutiveGo   int    `json:"consecutive_go_frames"`
	ConsecutiveNoGo int    `json:"consecutive_no_go_frames"`
}

// #endregion gate-state

// #region gate-decision
// GateDecision is the output of evaluating one frame.
type GateDecision struct {
	Next         State
	Healthy      bool
	Violations   []Violation // empty when healthy
	Transitioned bool        // Next.Status differs from the prior status
	Reason       string
}

// #endregion gate-decision
