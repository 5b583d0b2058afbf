package replay

import (
	"io"
	"log"

	"github.com/danielpatrickdp/mirror-console/internal/contradiction"
	"github.com/danielpatrickdp/mirror-console/internal/gate"
	"github.com/danielpatrickdp/mirror-console/internal/sim"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

// #region types
// ReplayConfig bundles the gate and scheduler configs for a replay run.
type ReplayConfig struct {
	GateConfig      gate.GateConfig
	SchedulerConfig contradiction.SchedulerConfig
}

// DefaultReplayConfig returns the production gate and scheduler settings.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		GateConfig:      gate.DefaultGateConfig(),
		SchedulerConfig: contradiction.DefaultSchedulerConfig(),
	}
}

// SlotResult is the state after one clock slot. A slot applies any toggles
// scheduled for it and then steps the driver once.
type SlotResult struct {
	Slot            int
	Toggled         bool
	Running         bool
	Frame           int64 // tick generated in this slot; -1 when stopped
	Status          gate.Status
	ConsecutiveGo   int
	ConsecutiveNoGo int
	ContradictionID string

	Snapshot *sim.SimulationState
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalSlots     int
	Frames         int
	GoSlots        int
	StabilizeSlots int
	NoGoSlots      int
	Transitions    int
	Contradictions int
	FinalFrame     int64
}

// #endregion types

// #region replay
// Replay drives a fresh, stopped driver through slots clock slots without a
// ticker. toggles lists the slots at which ToggleRunning is called; a slot
// listed twice toggles twice. Runs entirely in memory.
func Replay(source sim.FrameSource, slots int, toggles []int, config ReplayConfig) []SlotResult {
	driver := sim.NewDriver(
		sim.DefaultDriverConfig(),
		source,
		gate.NewGate(config.GateConfig),
		contradiction.NewScheduler(config.SchedulerConfig),
		telemetry.Fixed(0.5),
		sim.WithLogger(log.New(io.Discard, "", 0)),
	)

	toggleAt := make(map[int]int, len(toggles))
	for _, s := range toggles {
		toggleAt[s]++
	}

	results := make([]SlotResult, 0, slots)
	for slot := 0; slot < slots; slot++ {
		for i := 0; i < toggleAt[slot]; i++ {
			driver.ToggleRunning()
		}

		snap, stepped := driver.Step()
		r := SlotResult{
			Slot:            slot,
			Toggled:         toggleAt[slot] > 0,
			Running:         snap.IsRunning,
			Frame:           -1,
			Status:          snap.GateStatus,
			ConsecutiveGo:   snap.ConsecutiveGoFrames,
			ConsecutiveNoGo: snap.ConsecutiveNoGoFrames,
			Snapshot:        snap,
		}
		if stepped {
			r.Frame = snap.CurrentFrame - 1
		}
		if snap.ActiveContradiction != nil {
			r.ContradictionID = snap.ActiveContradiction.ID
		}
		results = append(results, r)
	}
	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []SlotResult) ReplaySummary {
	s := ReplaySummary{TotalSlots: len(results)}
	prevStatus := gate.Initial().Status
	prevEvent := ""
	for _, r := range results {
		if r.Frame >= 0 {
			s.Frames++
			s.FinalFrame = r.Frame
		}
		switch r.Status {
		case gate.StatusGo:
			s.GoSlots++
		case gate.StatusStabilizing:
			s.StabilizeSlots++
		case gate.StatusNoGo:
			s.NoGoSlots++
		}
		if r.Status != prevStatus {
			s.Transitions++
		}
		if r.ContradictionID != "" && r.ContradictionID != prevEvent {
			s.Contradictions++
		}
		prevStatus, prevEvent = r.Status, r.ContradictionID
	}
	return s
}

// #endregion replay
