package sim

import (
	"fmt"

	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

// gammaReference normalizes gamma (Hz) into a unitless activity gain.
const gammaReference = 47.0

// #region nodes
// NewNodes lays out n nodes uniformly in [-5, 5)^3, cycling kinds
// cognitive, sensory, motor by index.
func NewNodes(n int, noise telemetry.Noise) []Node {
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = Node{
			ID: fmt.Sprintf("node-%d", i),
			Position: [3]float64{
				(noise.Float64() - 0.5) * 10,
				(noise.Float64() - 0.5) * 10,
				(noise.Float64() - 0.5) * 10,
			},
			Type: kindFor(i),
		}
	}
	return nodes
}

// deriveActivity returns a new node slice with activity scaled by the
// frame's vireax and normalized gamma. prev is not modified.
func deriveActivity(prev []Node, f telemetry.MetricFrame, noise telemetry.Noise) []Node {
	next := make([]Node, len(prev))
	gain := f.Vireax * f.Gamma / gammaReference
	for i, n := range prev {
		n.Activity = clamp01(noise.Float64() * gain)
		next[i] = n
	}
	return next
}

func kindFor(i int) NodeKind {
	switch i % 3 {
	case 0:
		return NodeCognitive
	case 1:
		return NodeSensory
	default:
		return NodeMotor
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion nodes
