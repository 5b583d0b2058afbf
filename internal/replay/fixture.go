package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/danielpatrickdp/mirror-console/internal/gate"
	"github.com/danielpatrickdp/mirror-console/internal/sim"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture. Exactly one
// of Script and Seed selects the frame source.
type Fixture struct {
	Description     string                  `json:"description"`
	Slots           int                     `json:"slots"`
	Script          string                  `json:"script,omitempty"`
	Seed            *FixtureSeed            `json:"seed,omitempty"`
	Toggles         []int                   `json:"toggles"`
	Config          FixtureConfig           `json:"config"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureSeed selects the generator with a PCG(A, B) noise stream.
type FixtureSeed struct {
	A uint64 `json:"a"`
	B uint64 `json:"b"`
}

// FixtureExpectedResult captures the expected state after a slot. Nil
// fields are not checked.
type FixtureExpectedResult struct {
	Slot            int     `json:"slot"`
	Status          string  `json:"status"`
	ConsecutiveGo   *int    `json:"consecutive_go,omitempty"`
	ConsecutiveNoGo *int    `json:"consecutive_no_go,omitempty"`
	Frame           *int64  `json:"frame,omitempty"`
	Contradiction   *string `json:"contradiction,omitempty"` // "" expects none
}

// FixtureConfig overrides gate and scheduler settings. Zero values keep
// the defaults.
type FixtureConfig struct {
	GateConfig      FixtureGateConfig      `json:"gate_config"`
	SchedulerConfig FixtureSchedulerConfig `json:"scheduler_config"`
}

// FixtureGateConfig mirrors gate.GateConfig with JSON tags.
type FixtureGateConfig struct {
	MinVireax     float64 `json:"min_vireax"`
	MaxDrift      float64 `json:"max_drift"`
	MaxError      float64 `json:"max_error"`
	ConfirmFrames int     `json:"confirm_frames"`
	FailFrames    int     `json:"fail_frames"`
}

// FixtureSchedulerConfig mirrors contradiction.SchedulerConfig with JSON tags.
type FixtureSchedulerConfig struct {
	TriggerEvery int64 `json:"trigger_every"`
	ClearEvery   int64 `json:"clear_every"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if (f.Script == "") == (f.Seed == nil) {
		return nil, fmt.Errorf("fixture %s: %w", path, errors.New("exactly one of script and seed is required"))
	}
	if f.Slots <= 0 {
		f.Slots = len(f.Script)
	}
	return &f, nil
}

// Source builds the fixture's frame source.
func (f *Fixture) Source() sim.FrameSource {
	if f.Seed != nil {
		return SeededSource(telemetry.DefaultGeneratorConfig(), f.Seed.A, f.Seed.B)
	}
	return ScriptSource(f.Script)
}

// ToReplayConfig converts a FixtureConfig to a domain ReplayConfig.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	config := DefaultReplayConfig()
	g := fc.GateConfig
	if g.MinVireax != 0 {
		config.GateConfig.MinVireax = g.MinVireax
	}
	if g.MaxDrift != 0 {
		config.GateConfig.MaxDrift = g.MaxDrift
	}
	if g.MaxError != 0 {
		config.GateConfig.MaxError = g.MaxError
	}
	if g.ConfirmFrames != 0 {
		config.GateConfig.ConfirmFrames = g.ConfirmFrames
	}
	if g.FailFrames != 0 {
		config.GateConfig.FailFrames = g.FailFrames
	}
	if fc.SchedulerConfig.TriggerEvery != 0 {
		config.SchedulerConfig.TriggerEvery = fc.SchedulerConfig.TriggerEvery
	}
	if fc.SchedulerConfig.ClearEvery != 0 {
		config.SchedulerConfig.ClearEvery = fc.SchedulerConfig.ClearEvery
	}
	return config
}

// #endregion fixture-loader

// #region compare

// Mismatch describes one expected result that did not hold.
type Mismatch struct {
	Slot     int
	Field    string
	Expected string
	Replayed string
}

// Compare checks results against the fixture's expectations.
func Compare(results []SlotResult, expected []FixtureExpectedResult) []Mismatch {
	var out []Mismatch
	for _, e := range expected {
		if e.Slot < 0 || e.Slot >= len(results) {
			out = append(out, Mismatch{Slot: e.Slot, Field: "slot", Expected: "in range", Replayed: fmt.Sprintf("%d slots", len(results))})
			continue
		}
		r := results[e.Slot]
		if e.Status != "" && gate.Status(e.Status) != r.Status {
			out = append(out, Mismatch{e.Slot, "status", e.Status, string(r.Status)})
		}
		if e.ConsecutiveGo != nil && *e.ConsecutiveGo != r.ConsecutiveGo {
			out = append(out, Mismatch{e.Slot, "consecutive_go", fmt.Sprint(*e.ConsecutiveGo), fmt.Sprint(r.ConsecutiveGo)})
		}
		if e.ConsecutiveNoGo != nil && *e.ConsecutiveNoGo != r.ConsecutiveNoGo {
			out = append(out, Mismatch{e.Slot, "consecutive_no_go", fmt.Sprint(*e.ConsecutiveNoGo), fmt.Sprint(r.ConsecutiveNoGo)})
		}
		if e.Frame != nil && *e.Frame != r.Frame {
			out = append(out, Mismatch{e.Slot, "frame", fmt.Sprint(*e.Frame), fmt.Sprint(r.Frame)})
		}
		if e.Contradiction != nil && *e.Contradiction != r.ContradictionID {
			out = append(out, Mismatch{e.Slot, "contradiction", *e.Contradiction, r.ContradictionID})
		}
	}
	return out
}

// #endregion compare
