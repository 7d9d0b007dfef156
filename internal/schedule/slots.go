package schedule

import "time"

// GenerateSlots walks every open interval at granularity-minute steps and
// returns the start times whose full [t, t+duration) window fits inside the
// interval and overlaps no busy range. Slots never span the gap between two
// open intervals. A window that merely touches a busy range boundary is
// allowed.
func GenerateSlots(open []Interval, busy *BusySet, duration, granularity int) ([]string, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if granularity <= 0 {
		return nil, ErrInvalidGranularity
	}

	slots := make([]string, 0)
	for _, iv := range open {
		if !iv.Valid() {
			continue
		}
		for t := iv.Start; t+duration <= iv.End; t += granularity {
			window := Interval{Start: t, End: t + duration}
			if busy != nil && busy.Blocks(window) {
				continue
			}
			slots = append(slots, MinutesToClock(t))
		}
	}
	return slots, nil
}

// FilterPast removes slots that have already started. Only the current date
// needs filtering; future dates pass through untouched.
func FilterPast(dateStr string, slots []string, loc *time.Location, now time.Time) ([]string, error) {
	if !DateIsToday(dateStr, loc, now) {
		return slots, nil
	}
	filtered := make([]string, 0, len(slots))
	for _, s := range slots {
		past, err := IsSlotPast(dateStr, s, loc, now)
		if err != nil {
			return nil, err
		}
		if !past {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// ContainsSlot reports whether timeStr is one of the generated slots.
func ContainsSlot(slots []string, timeStr string) bool {
	for _, s := range slots {
		if s == timeStr {
			return true
		}
	}
	return false
}
