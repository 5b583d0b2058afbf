package config

import (
	"log"
	"math/rand/v2"

	"github.com/danielpatrickdp/mirror-console/internal/audit"
	"github.com/danielpatrickdp/mirror-console/internal/contradiction"
	"github.com/danielpatrickdp/mirror-console/internal/gate"
	"github.com/danielpatrickdp/mirror-console/internal/sim"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

// Seed selects the two PCG streams behind a driver: one for frame noise,
// one for node layout and activity.
type Seed struct {
	A uint64 `env:"MIRROR_SEED_A"`
	B uint64 `env:"MIRROR_SEED_B"`
}

// RandomSeed draws a seed from the runtime source.
func RandomSeed() Seed {
	return Seed{A: rand.Uint64(), B: rand.Uint64()}
}

// NewDriver assembles a stopped driver from the profile.
func (p Profile) NewDriver(seed Seed, logger *log.Logger) *sim.Driver {
	frameNoise := rand.New(rand.NewPCG(seed.A, seed.B))
	nodeNoise := rand.New(rand.NewPCG(seed.B, seed.A^0x9e3779b97f4a7c15))

	opts := []sim.Option{}
	if logger != nil {
		opts = append(opts, sim.WithLogger(logger))
	}
	return sim.NewDriver(
		p.Driver,
		telemetry.NewSource(telemetry.NewGenerator(p.Generator), frameNoise),
		gate.NewGate(p.Gate),
		contradiction.NewScheduler(p.Scheduler),
		nodeNoise,
		opts...,
	)
}

// NewAuditor builds the audit panel's auditor.
func (p Profile) NewAuditor() *audit.Auditor {
	return audit.NewAuditor(p.Audit)
}
