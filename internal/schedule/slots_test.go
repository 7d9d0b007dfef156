package schedule

import (
	"reflect"
	"testing"
	"time"
)

func TestGenerateSlotsWorkedExample(t *testing.T) {
	// Business open 09:00-12:00 and 13:00-18:00, one existing 30-minute
	// appointment at 10:00. 30-minute service, 30-minute step.
	open := []Interval{{Start: 540, End: 720}, {Start: 780, End: 1080}}
	busy := NewBusySet()
	busy.Add(Interval{Start: 600, End: 630})

	slots, err := GenerateSlots(open, busy, 30, 30)
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}

	want := []string{
		"09:00", "09:30", "10:30", "11:00", "11:30",
		"13:00", "13:30", "14:00", "14:30", "15:00", "15:30",
		"16:00", "16:30", "17:00", "17:30",
	}
	if !reflect.DeepEqual(slots, want) {
		t.Fatalf("unexpected slots:\n got %v\nwant %v", slots, want)
	}
}

func TestGenerateSlotsDurationNeverSpansGap(t *testing.T) {
	// 90-minute service; the 09:00-10:00 fragment cannot host it even
	// though the fragments sum to enough time.
	open := []Interval{{Start: 540, End: 600}, {Start: 600, End: 660}}
	slots, err := GenerateSlots(open, NewBusySet(), 90, 30)
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slots)
	}
}

func TestGenerateSlotsBoundaryTouchAllowed(t *testing.T) {
	open := []Interval{{Start: 540, End: 720}}
	busy := NewBusySet()
	busy.Add(Interval{Start: 600, End: 630})

	slots, err := GenerateSlots(open, busy, 60, 30)
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	// 09:00-10:00 touches the busy start and must survive; 09:30 and
	// 10:00 overlap; 10:30 starts exactly at the busy end.
	want := []string{"09:00", "10:30", "11:00"}
	if !reflect.DeepEqual(slots, want) {
		t.Fatalf("unexpected slots: %v", slots)
	}
}

func TestGenerateSlotsEmptyOpenIntervals(t *testing.T) {
	slots, err := GenerateSlots(nil, NewBusySet(), 30, 30)
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected empty slot list, got %v", slots)
	}
}

func TestGenerateSlotsRejectsBadParameters(t *testing.T) {
	if _, err := GenerateSlots(nil, nil, 0, 30); err != ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := GenerateSlots(nil, nil, 30, 0); err != ErrInvalidGranularity {
		t.Fatalf("expected ErrInvalidGranularity, got %v", err)
	}
}

func TestFilterPastTodayCutoff(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 9, 14, 10, 0, 0, loc)

	slots, err := FilterPast("2026-03-09", []string{"14:00", "14:30", "15:00"}, loc, now)
	if err != nil {
		t.Fatalf("FilterPast error: %v", err)
	}
	want := []string{"14:30", "15:00"}
	if !reflect.DeepEqual(slots, want) {
		t.Fatalf("unexpected slots: %v", slots)
	}
}

func TestFilterPastFutureDateUntouched(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 9, 23, 59, 0, 0, loc)

	in := []string{"09:00", "09:30"}
	slots, err := FilterPast("2026-03-10", in, loc, now)
	if err != nil {
		t.Fatalf("FilterPast error: %v", err)
	}
	if !reflect.DeepEqual(slots, in) {
		t.Fatalf("future date slots must pass through, got %v", slots)
	}
}

func TestContainsSlot(t *testing.T) {
	slots := []string{"09:00", "09:30"}
	if !ContainsSlot(slots, "09:30") {
		t.Fatalf("expected slot to be present")
	}
	if ContainsSlot(slots, "10:00") {
		t.Fatalf("expected slot to be absent")
	}
}
