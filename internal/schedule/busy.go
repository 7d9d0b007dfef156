package schedule

import (
	"sort"
	"time"
)

// BusySet records the minute-of-day ranges of a date that are already
// occupied. Ranges are kept sorted and merged on insert so overlap queries
// stay logarithmic in the number of busy ranges.
type BusySet struct {
	ranges []Interval
}

func NewBusySet() *BusySet {
	return &BusySet{}
}

// Add inserts iv, merging it with any ranges it touches or overlaps.
// Invalid intervals are ignored.
func (b *BusySet) Add(iv Interval) {
	if !iv.Valid() {
		return
	}
	if iv.Start < 0 {
		iv.Start = 0
	}
	if iv.End > MinutesPerDay {
		iv.End = MinutesPerDay
	}
	if !iv.Valid() {
		return
	}

	pos := sort.Search(len(b.ranges), func(i int) bool {
		return b.ranges[i].Start >= iv.Start
	})

	// Absorb neighbors that touch or overlap the new range.
	lo := pos
	if lo > 0 && b.ranges[lo-1].End >= iv.Start {
		lo--
	}
	hi := pos
	for hi < len(b.ranges) && b.ranges[hi].Start <= iv.End {
		hi++
	}
	for _, r := range b.ranges[lo:hi] {
		if r.Start < iv.Start {
			iv.Start = r.Start
		}
		if r.End > iv.End {
			iv.End = r.End
		}
	}

	merged := make([]Interval, 0, len(b.ranges)-(hi-lo)+1)
	merged = append(merged, b.ranges[:lo]...)
	merged = append(merged, iv)
	merged = append(merged, b.ranges[hi:]...)
	b.ranges = merged
}

// Blocks reports whether iv overlaps any busy range. A range whose end
// touches iv's start (or vice versa) does not block it.
func (b *BusySet) Blocks(iv Interval) bool {
	if !iv.Valid() || len(b.ranges) == 0 {
		return false
	}
	// First range ending after iv.Start is the only candidate that can
	// still overlap.
	pos := sort.Search(len(b.ranges), func(i int) bool {
		return b.ranges[i].End > iv.Start
	})
	return pos < len(b.ranges) && Overlaps(b.ranges[pos], iv)
}

func (b *BusySet) Len() int {
	return len(b.ranges)
}

// Ranges returns a copy of the merged busy ranges in ascending order.
func (b *BusySet) Ranges() []Interval {
	out := make([]Interval, len(b.ranges))
	copy(out, b.ranges)
	return out
}

// AddClipped projects the wall-clock range [startAt, endAt) onto the given
// date and records the portion falling inside it. A range spanning several
// days occupies each touched date from midnight to midnight.
func (b *BusySet) AddClipped(startAt, endAt time.Time, date time.Time, loc *time.Location) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	if !startAt.Before(dayEnd) || !endAt.After(dayStart) {
		return
	}

	start := 0
	if startAt.After(dayStart) {
		start = int(startAt.Sub(dayStart) / time.Minute)
	}
	end := MinutesPerDay
	if endAt.Before(dayEnd) {
		end = int(endAt.Sub(dayStart) / time.Minute)
		// Partial trailing minutes still occupy the minute they touch.
		if endAt.Sub(dayStart)%time.Minute != 0 {
			end++
		}
	}

	b.Add(Interval{Start: start, End: end})
}
