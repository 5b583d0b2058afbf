package replay

import (
	"testing"

	"github.com/danielpatrickdp/mirror-console/internal/gate"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

// 1. Stopped driver: no frames are generated and the gate stays NO-GO.
func TestReplay_StoppedGeneratesNothing(t *testing.T) {
	results := Replay(ScriptSource(""), 10, nil, DefaultReplayConfig())
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Frame != -1 || r.Running || r.Status != gate.StatusNoGo {
			t.Fatalf("slot %d: expected idle NO-GO, got %+v", r.Slot, r)
		}
	}
	s := Summarize(results)
	if s.Frames != 0 || s.NoGoSlots != 10 || s.Transitions != 0 {
		t.Errorf("unexpected summary %+v", s)
	}
}

// 2. End-to-end hysteresis from a script.
func TestReplay_ScriptedHysteresis(t *testing.T) {
	results := Replay(ScriptSource("HHHHHUU"), 7, []int{0}, DefaultReplayConfig())

	want := []gate.Status{
		gate.StatusStabilizing, gate.StatusStabilizing, gate.StatusStabilizing, gate.StatusStabilizing,
		gate.StatusGo, gate.StatusStabilizing, gate.StatusNoGo,
	}
	for i, w := range want {
		if results[i].Status != w {
			t.Errorf("slot %d: expected %s, got %s", i, w, results[i].Status)
		}
	}
	if results[4].ConsecutiveGo != 5 {
		t.Errorf("expected go=5 at GO, got %d", results[4].ConsecutiveGo)
	}
	if results[5].ConsecutiveGo != 0 || results[5].ConsecutiveNoGo != 1 {
		t.Errorf("expected go=0 nogo=1, got %+v", results[5])
	}

	s := Summarize(results)
	// NO-GO -> STABILIZING -> GO -> STABILIZING -> NO-GO
	if s.Transitions != 4 {
		t.Errorf("expected 4 transitions, got %d", s.Transitions)
	}
	if s.Frames != 7 || s.FinalFrame != 6 {
		t.Errorf("unexpected frame counts %+v", s)
	}
}

// 3. Double toggle in one slot resumes with a fresh gate and the same tick.
func TestReplay_DoubleToggleResetsGate(t *testing.T) {
	results := Replay(ScriptSource(""), 8, []int{0, 6, 6}, DefaultReplayConfig())
	if results[5].Status != gate.StatusGo {
		t.Fatalf("expected GO before reset, got %s", results[5].Status)
	}
	r := results[6]
	if r.Status != gate.StatusStabilizing || r.ConsecutiveGo != 1 || r.Frame != 6 {
		t.Errorf("expected restart at frame 6 with go=1, got %+v", r)
	}
}

// 4. Same seed, same run.
func TestReplay_SeededDeterministic(t *testing.T) {
	a := Replay(SeededSource(telemetry.DefaultGeneratorConfig(), 1, 2), 200, []int{0}, DefaultReplayConfig())
	b := Replay(SeededSource(telemetry.DefaultGeneratorConfig(), 1, 2), 200, []int{0}, DefaultReplayConfig())
	for i := range a {
		fa, _ := a[i].Snapshot.Latest()
		fb, _ := b[i].Snapshot.Latest()
		if fa != fb || a[i].Status != b[i].Status {
			t.Fatalf("slot %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}
