package contradiction

import (
	"reflect"
	"testing"
)

func TestScheduler_WalkSchedule(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	var active *Event

	for tick := int64(0); tick <= 900; tick++ {
		active = s.Next(tick, active)

		wantActive := (tick >= 300 && tick < 500) || tick >= 600
		if (active != nil) != wantActive {
			t.Fatalf("tick %d: expected active=%v, got %v", tick, wantActive, active != nil)
		}

		switch {
		case tick >= 300 && tick < 500:
			if active.Timestamp != 300 {
				t.Fatalf("tick %d: expected event from tick 300, got %d", tick, active.Timestamp)
			}
		case tick >= 600:
			if active.Timestamp != 600 {
				t.Fatalf("tick %d: expected event from tick 600, got %d", tick, active.Timestamp)
			}
		}
	}
}

func TestScheduler_NoSecondEventWhileActive(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	first := NewEvent(600)

	got := s.Next(900, first)
	if got != first {
		t.Fatal("expected the active event to be kept at tick 900")
	}
}

func TestScheduler_SetThenClearOnSharedMultiple(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())

	if got := s.Next(1500, nil); got != nil {
		t.Fatalf("expected tick 1500 to set then clear, got %+v", got)
	}
}

func TestScheduler_ClearOnlyTick(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	if got := s.Next(500, nil); got != nil {
		t.Fatal("expected nothing set on a clear-only tick")
	}
	if got := s.Next(1000, NewEvent(900)); got != nil {
		t.Fatal("expected clear at tick 1000")
	}
}

func TestScheduler_TickZeroNeverTriggers(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	if got := s.Next(0, nil); got != nil {
		t.Fatal("tick 0 must not trigger")
	}
}

func TestScheduler_Idempotent(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	a := s.Next(300, nil)
	b := s.Next(300, nil)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical events for identical inputs")
	}
	if a == b {
		t.Fatal("expected distinct allocations")
	}
}

func TestNewEvent_Template(t *testing.T) {
	e := NewEvent(42)
	if e.ID != "CT-000042" || e.Timestamp != 42 {
		t.Fatalf("unexpected stamp %s / %d", e.ID, e.Timestamp)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		t.Fatalf("confidence %f out of range", e.Confidence)
	}
	for key := range e.Inputs {
		if _, ok := e.Formalization[key]; !ok {
			t.Fatalf("input %s has no formalization", key)
		}
	}
	if len(e.Repairs) == 0 || e.Repairs[0].Cost != "low" {
		t.Fatal("expected repairs ordered from the cheapest")
	}
}
