package replay

import (
	"math/rand/v2"

	"github.com/danielpatrickdp/mirror-console/internal/sim"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

// Scripted frames sit well inside or outside the default gate bounds.
var (
	healthyFrame   = telemetry.MetricFrame{Gamma: 42, Psi: 0.997, Vireax: 0.996, Drift: 2e-6, Error: 0.01, Entropy: 0.5}
	unhealthyFrame = telemetry.MetricFrame{Gamma: 42, Psi: 0.991, Vireax: 0.985, Drift: 2e-6, Error: 0.01, Entropy: 0.5}
)

// ScriptSource maps tick t to script[t]: 'U' (or 'u') is unhealthy, any
// other byte healthy. Ticks past the end are healthy.
func ScriptSource(script string) sim.FrameSource {
	return sim.FrameSourceFunc(func(t int64) telemetry.MetricFrame {
		f := healthyFrame
		if t >= 0 && t < int64(len(script)) && (script[t] == 'U' || script[t] == 'u') {
			f = unhealthyFrame
		}
		f.Timestamp = t
		return f
	})
}

// SeededSource is the production generator with a PCG noise stream.
func SeededSource(config telemetry.GeneratorConfig, seed1, seed2 uint64) sim.FrameSource {
	return telemetry.NewSource(telemetry.NewGenerator(config), rand.New(rand.NewPCG(seed1, seed2)))
}
