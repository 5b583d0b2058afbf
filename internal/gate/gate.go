package gate

import (
	"fmt"

	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

// #region gate
// Gate classifies frames and advances the hysteresis state machine.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Config returns the gate's thresholds.
func (g *Gate) Config() GateConfig {
	return g.config
}

// Initial returns the power-on state: NO-GO with zeroed counters.
func Initial() State {
	return State{Status: StatusNoGo}
}

// Reset is the manual override applied by the run control. Counters are
// zeroed; starting forces STABILIZING, stopping forces NO-GO.
func Reset(starting bool) State {
	if starting {
		return State{Status: StatusStabilizing}
	}
	return State{Status: StatusNoGo}
}

// Check tests a frame against the health bounds. All bounds are checked so
// the caller sees every violation, but any single one fails the frame.
func (g *Gate) Check(f telemetry.MetricFrame) (bool, []Violation) {
	var violations []Violation

	if f.Vireax < g.config.MinVireax {
		violations = append(violations, Violation{
			Type:   ViolationVireax,
			Reason: fmt.Sprintf("vireax %.5f below min %.5f", f.Vireax, g.config.MinVireax),
		})
	}
	if f.Drift > g.config.MaxDrift {
		violations = append(violations, Violation{
			Type:   ViolationDrift,
			Reason: fmt.Sprintf("drift %.3es above max %.3es", f.Drift, g.config.MaxDrift),
		})
	}
	if f.Error > g.config.MaxError {
		violations = append(violations, Violation{
			Type:   ViolationError,
			Reason: fmt.Sprintf("error %.4f above max %.4f", f.Error, g.config.MaxError),
		})
	}

	return len(violations) == 0, violations
}

// Evaluate checks the frame and applies the transition function.
func (g *Gate) Evaluate(prev State, f telemetry.MetricFrame) GateDecision {
	healthy, violations := g.Check(f)
	next := g.Transition(prev, healthy)

	reason := fmt.Sprintf("healthy: go=%d/%d", next.ConsecutiveGo, g.config.ConfirmFrames)
	if !healthy {
		reason = fmt.Sprintf("unhealthy (%s): no_go=%d/%d",
			violations[0].Reason, next.ConsecutiveNoGo, g.config.FailFrames)
	}

	return GateDecision{
		Next:         next,
		Healthy:      healthy,
		Violations:   violations,
		Transitioned: next.Status != prev.Status,
		Reason:       reason,
	}
}

// Transition is the pure hysteresis step. Healthy frames accumulate toward
// GO without changing status early; a single unhealthy frame demotes GO to
// STABILIZING and FailFrames consecutive ones force NO-GO.
func (g *Gate) Transition(prev State, healthy bool) State {
	next := prev

	if healthy {
		next.ConsecutiveGo++
		next.ConsecutiveNoGo = 0
		if next.ConsecutiveGo >= g.config.ConfirmFrames {
			next.Status = StatusGo
		}
		return next
	}

	next.ConsecutiveNoGo++
	next.ConsecutiveGo = 0
	switch {
	case next.ConsecutiveNoGo >= g.config.FailFrames:
		next.Status = StatusNoGo
	case prev.Status == StatusGo:
		next.Status = StatusStabilizing
	}
	return next
}

// #endregion gate
