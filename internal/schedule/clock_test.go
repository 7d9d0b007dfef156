package schedule

import (
	"testing"
	"time"
)

func TestParseClockToMinutes(t *testing.T) {
	m, err := ParseClockToMinutes("09:30")
	if err != nil {
		t.Fatalf("ParseClockToMinutes error: %v", err)
	}
	if m != 570 {
		t.Fatalf("expected 570, got %d", m)
	}
	if _, err := ParseClockToMinutes("25:00"); err != ErrInvalidTime {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}

func TestMinutesToClock(t *testing.T) {
	if got := MinutesToClock(570); got != "09:30" {
		t.Fatalf("expected 09:30, got %q", got)
	}
	if got := MinutesToClock(0); got != "00:00" {
		t.Fatalf("expected 00:00, got %q", got)
	}
}

func TestIsDatePast(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, loc)

	past, err := IsDatePast("2026-03-08", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if !past {
		t.Fatalf("expected date to be past")
	}

	past, err = IsDatePast("2026-03-09", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if past {
		t.Fatalf("today is not past")
	}
}

func TestIsSlotPast(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 9, 14, 10, 0, 0, loc)

	past, err := IsSlotPast("2026-03-09", "14:00", loc, now)
	if err != nil {
		t.Fatalf("IsSlotPast error: %v", err)
	}
	if !past {
		t.Fatalf("a started slot is past")
	}

	past, err = IsSlotPast("2026-03-09", "14:30", loc, now)
	if err != nil {
		t.Fatalf("IsSlotPast error: %v", err)
	}
	if past {
		t.Fatalf("14:30 has not started yet")
	}
}

func TestDateIsToday(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, loc)
	if !DateIsToday("2026-03-09", loc, now) {
		t.Fatalf("expected today")
	}
	if DateIsToday("2026-03-10", loc, now) {
		t.Fatalf("tomorrow is not today")
	}
	if DateIsToday("not-a-date", loc, now) {
		t.Fatalf("malformed date is never today")
	}
}
