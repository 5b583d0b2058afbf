package telemetry

// #region metric-frame
// MetricFrame is one synthetic telemetry sample. Frames are values: once
// returned by the generator they are never modified.
type MetricFrame struct {
	Timestamp int64   `json:"timestamp"` // tick index, starts at 0
	Gamma     float64 `json:"gamma"`     // sync proxy, Hz
	Psi       float64 `json:"psi"`       // snapshot integrity, ~[0.99, 1]
	Vireax    float64 `json:"vireax"`    // control-plane stability, ~[0.989, 0.999]
	Drift     float64 `json:"drift"`     // temporal jitter, seconds
	Error     float64 `json:"error"`     // reasoning error proxy
	Entropy   float64 `json:"entropy"`   // hypothesis diversity, [0, 1]
}

// #endregion metric-frame

// #region noise
// Noise is a source of uniform random values in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type Noise interface {
	Float64() float64
}

// NoiseFunc adapts a plain function to the Noise interface.
type NoiseFunc func() float64

// Float64 implements Noise.
func (f NoiseFunc) Float64() float64 { return f() }

// Fixed returns a Noise that always yields v.
func Fixed(v float64) Noise {
	return NoiseFunc(func() float64 { return v })
}

// #endregion noise

// #region generator-config
// GeneratorConfig holds the oscillator constants for frame synthesis.
type GeneratorConfig struct {
	GammaCenter     float64 `yaml:"gamma_center"`
	GammaAmplitude  float64 `yaml:"gamma_amplitude"`
	GammaFreq       float64 `yaml:"gamma_freq"`
	GammaNoiseScale float64 `yaml:"gamma_noise_scale"`

	PsiBase      float64 `yaml:"psi_base"`
	PsiAmplitude float64 `yaml:"psi_amplitude"`
	PsiFreq      float64 `yaml:"psi_freq"`

	VireaxBase      float64 `yaml:"vireax_base"`
	VireaxAmplitude float64 `yaml:"vireax_amplitude"`
	VireaxFreq      float64 `yaml:"vireax_freq"`

	DriftBase  float64 `yaml:"drift_base"`  // seconds
	DriftScale float64 `yaml:"drift_scale"` // seconds per unit noise

	ErrorMultiplier float64 `yaml:"error_multiplier"`
	ErrorScale      float64 `yaml:"error_scale"`

	EntropyBase      float64 `yaml:"entropy_base"`
	EntropyAmplitude float64 `yaml:"entropy_amplitude"`
	EntropyFreq      float64 `yaml:"entropy_freq"`
}

// DefaultGeneratorConfig returns constants tuned so vireax hovers just above
// the 0.99 health floor and drift crosses 1e-5 s on roughly one tick in ten.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		GammaCenter:     42,
		GammaAmplitude:  5,
		GammaFreq:       0.1,
		GammaNoiseScale: 0.5,

		PsiBase:      0.995,
		PsiAmplitude: 0.005,
		PsiFreq:      0.08,

		VireaxBase:      0.994,
		VireaxAmplitude: 0.005,
		VireaxFreq:      0.05,

		DriftBase:  2e-6,
		DriftScale: 9e-6,

		ErrorMultiplier: 1000,
		ErrorScale:      0.045,

		EntropyBase:      0.5,
		EntropyAmplitude: 0.35,
		EntropyFreq:      0.03,
	}
}

// #endregion generator-config
