package sim

import (
	"github.com/danielpatrickdp/mirror-console/internal/contradiction"
	"github.com/danielpatrickdp/mirror-console/internal/gate"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

// #region simulation-state
// SimulationState is the published snapshot. A snapshot is never modified
// after publication; readers may share it freely without locking.
type SimulationState struct {
	IsRunning             bool                    `json:"isRunning"`
	CurrentFrame          int64                   `json:"currentFrame"` // next tick to generate
	GateStatus            gate.Status             `json:"gateStatus"`
	ConsecutiveGoFrames   int                     `json:"consecutiveGoFrames"`
	ConsecutiveNoGoFrames int                     `json:"consecutiveNoGoFrames"`
	Metrics               []telemetry.MetricFrame `json:"metrics"` // oldest first
	Nodes                 []Node                  `json:"nodes"`
	ActiveContradiction   *contradiction.Event    `json:"activeContradiction,omitempty"`
}

// Gate returns the gate portion of the snapshot.
func (s *SimulationState) Gate() gate.State {
	return gate.State{
		Status:          s.GateStatus,
		ConsecutiveGo:   s.ConsecutiveGoFrames,
		ConsecutiveNoGo: s.ConsecutiveNoGoFrames,
	}
}

// Latest returns the newest frame, if any have been generated.
func (s *SimulationState) Latest() (telemetry.MetricFrame, bool) {
	if len(s.Metrics) == 0 {
		return telemetry.MetricFrame{}, false
	}
	return s.Metrics[len(s.Metrics)-1], true
}

// #endregion simulation-state

// #region node
// NodeKind classifies a visualization node.
type NodeKind string

const (
	NodeCognitive NodeKind = "cognitive"
	NodeSensory   NodeKind = "sensory"
	NodeMotor     NodeKind = "motor"
)

// Node is a decorative visualization entity. Only Activity changes per tick.
type Node struct {
	ID       string     `json:"id"`
	Position [3]float64 `json:"position"`
	Activity float64    `json:"activity"` // [0, 1]
	Type     NodeKind   `json:"type"`
}

// #endregion node

// #region frame-source
// FrameSource yields the frame for a tick. telemetry.Source is the
// production implementation; tests substitute scripted sources.
type FrameSource interface {
	Frame(t int64) telemetry.MetricFrame
}

// FrameSourceFunc adapts a function to FrameSource.
type FrameSourceFunc func(t int64) telemetry.MetricFrame

// Frame implements FrameSource.
func (f FrameSourceFunc) Frame(t int64) telemetry.MetricFrame { return f(t) }

// #endregion frame-source
