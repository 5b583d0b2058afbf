package telemetry

import "math"

// #region generator
// Generator synthesizes metric frames from a tick index and injected noise.
// It holds no mutable state; the same (tick, noise) pair always yields the
// same frame.
type Generator struct {
	config GeneratorConfig
}

// NewGenerator creates a generator with the given oscillator constants.
func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{config: config}
}

// Config returns the generator's constants.
func (g *Generator) Config() GeneratorConfig {
	return g.config
}

// Frame produces the frame for tick t. Noise is drawn in a fixed order
// (gamma, drift, error) so a scripted source reproduces a frame exactly.
func (g *Generator) Frame(t int64, noise Noise) MetricFrame {
	c := g.config
	x := float64(t)

	gammaNoise := noise.Float64()
	driftNoise := noise.Float64()
	errorNoise := noise.Float64()

	drift := math.Max(0, c.DriftBase+driftNoise*c.DriftScale)

	return MetricFrame{
		Timestamp: t,
		Gamma:     c.GammaCenter + c.GammaAmplitude*math.Sin(x*c.GammaFreq) + gammaNoise*c.GammaNoiseScale,
		Psi:       clamp(c.PsiBase+c.PsiAmplitude*math.Cos(x*c.PsiFreq), 0, 1),
		Vireax:    c.VireaxBase + c.VireaxAmplitude*math.Sin(x*c.VireaxFreq),
		Drift:     drift,
		Error:     math.Max(0, drift*c.ErrorMultiplier+errorNoise*c.ErrorScale),
		Entropy:   clamp(c.EntropyBase+c.EntropyAmplitude*math.Sin(x*c.EntropyFreq), 0, 1),
	}
}

// #endregion generator

// #region source
// Source binds a generator to a noise stream so callers only supply the tick.
type Source struct {
	gen   *Generator
	noise Noise
}

// NewSource creates a frame source. noise must not be nil.
func NewSource(gen *Generator, noise Noise) *Source {
	return &Source{gen: gen, noise: noise}
}

// Frame implements the driver's frame source contract.
func (s *Source) Frame(t int64) MetricFrame {
	return s.gen.Frame(t, s.noise)
}

// #endregion source

// #region helpers
// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion helpers
