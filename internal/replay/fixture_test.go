package replay

import (
	"os"
	"path/filepath"
	"testing"
)

// #region fixture-tests

// runFixture loads a fixture from testdata, replays it and fails on any
// mismatch with the expected results.
func runFixture(t *testing.T, name string) []SlotResult {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	results := Replay(f.Source(), f.Slots, f.Toggles, f.Config.ToReplayConfig())
	if len(results) != f.Slots {
		t.Fatalf("expected %d results, got %d", f.Slots, len(results))
	}
	for _, m := range Compare(results, f.ExpectedResults) {
		t.Errorf("slot %d: %s expected %q, replayed %q", m.Slot, m.Field, m.Expected, m.Replayed)
	}
	return results
}

func TestFixture_Hysteresis(t *testing.T) {
	runFixture(t, "hysteresis.json")
}

func TestFixture_Contradictions(t *testing.T) {
	results := runFixture(t, "contradictions.json")
	if got := Summarize(results).Contradictions; got != 2 {
		t.Errorf("expected 2 contradiction windows, got %d", got)
	}
}

func TestLoadFixture_RequiresOneSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"slots": 3, "script": "HHH", "seed": {"a": 1, "b": 2}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for fixture with both script and seed")
	}
}

func TestLoadFixture_SlotsDefaultToScriptLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.json")
	if err := os.WriteFile(path, []byte(`{"script": "HHU", "toggles": [0]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if f.Slots != 3 {
		t.Errorf("expected 3 slots, got %d", f.Slots)
	}
}

func TestCompare_ReportsMismatch(t *testing.T) {
	results := Replay(ScriptSource("H"), 1, []int{0}, DefaultReplayConfig())
	goFrames := 3
	m := Compare(results, []FixtureExpectedResult{
		{Slot: 0, Status: "GO", ConsecutiveGo: &goFrames},
		{Slot: 5, Status: "GO"},
	})
	if len(m) != 3 {
		t.Fatalf("expected 3 mismatches, got %+v", m)
	}
	if m[0].Field != "status" || m[1].Field != "consecutive_go" || m[2].Field != "slot" {
		t.Errorf("unexpected mismatch fields %+v", m)
	}
}

func TestFixtureConfig_OverridesOnlyNonZero(t *testing.T) {
	fc := FixtureConfig{GateConfig: FixtureGateConfig{ConfirmFrames: 3}}
	c := fc.ToReplayConfig()
	if c.GateConfig.ConfirmFrames != 3 {
		t.Errorf("expected confirm 3, got %d", c.GateConfig.ConfirmFrames)
	}
	if c.GateConfig.FailFrames != 2 || c.GateConfig.MinVireax != 0.99 {
		t.Errorf("expected defaults kept, got %+v", c.GateConfig)
	}
	if c.SchedulerConfig.TriggerEvery != 300 {
		t.Errorf("expected default trigger, got %d", c.SchedulerConfig.TriggerEvery)
	}
}

// #endregion fixture-tests
