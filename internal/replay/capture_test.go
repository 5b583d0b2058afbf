package replay

import (
	"testing"

	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

func TestCapture_TransitionsAndFinalSlot(t *testing.T) {
	results := Replay(ScriptSource("HHHHHUU"), 7, []int{0}, DefaultReplayConfig())
	got := Capture(results)

	wantSlots := []int{0, 4, 5, 6}
	if len(got) != len(wantSlots) {
		t.Fatalf("expected %d captured slots, got %d: %+v", len(wantSlots), len(got), got)
	}
	for i, slot := range wantSlots {
		if got[i].Slot != slot {
			t.Errorf("entry %d: expected slot %d, got %d", i, slot, got[i].Slot)
		}
		if got[i].ConsecutiveGo == nil || got[i].Frame == nil || got[i].Contradiction == nil {
			t.Errorf("slot %d: captured entry leaves fields unchecked", slot)
		}
	}
	if got[1].Status != "GO" || *got[1].ConsecutiveGo != 5 {
		t.Errorf("slot 4: expected GO with 5 go frames, got %+v", got[1])
	}
}

func TestCapture_RoundTripsThroughCompare(t *testing.T) {
	results := Replay(SeededSource(telemetry.DefaultGeneratorConfig(), 7, 11), 700, []int{0, 650}, DefaultReplayConfig())
	expected := Capture(results)

	if mm := Compare(results, expected); len(mm) != 0 {
		t.Fatalf("captured expectations do not hold: %+v", mm)
	}

	var raised bool
	for _, e := range expected {
		if *e.Contradiction == "CT-000300" {
			raised = true
		}
	}
	if !raised {
		t.Error("expected the tick-300 contradiction to be captured")
	}
}

func TestCapture_Empty(t *testing.T) {
	if got := Capture(nil); len(got) != 0 {
		t.Errorf("expected nothing, got %+v", got)
	}
}
