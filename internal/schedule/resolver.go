package schedule

import (
	"sort"
	"time"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
)

// ResolveOpenIntervals computes the bookable intervals for one professional
// on one date by combining the business week schedule with the
// professional's override:
//
//   - business day disabled: closed, nothing else matters;
//   - override day enabled: intersection of both interval lists;
//   - override day disabled: the professional is off even though the
//     business is open;
//   - no override at all: the professional inherits business hours.
func ResolveOpenIntervals(business models.WeekSchedule, override *models.WeekSchedule, date time.Time) []Interval {
	day := business[date.Weekday()]
	if !day.Enabled {
		return nil
	}

	businessIntervals := toIntervals(day.Intervals)
	if override == nil {
		return businessIntervals
	}

	overrideDay := override[date.Weekday()]
	if !overrideDay.Enabled {
		return nil
	}
	return IntersectAll(businessIntervals, toIntervals(overrideDay.Intervals))
}

// toIntervals sanitizes a stored interval list: invalid entries are dropped
// and overlapping or touching entries are merged, so slot generation always
// sees disjoint ascending intervals even when a document predates the write
// side validation.
func toIntervals(in []models.WorkInterval) []Interval {
	out := make([]Interval, 0, len(in))
	for _, wi := range in {
		iv := Interval{Start: wi.Start, End: wi.End}
		if !iv.Valid() || iv.Start < 0 || iv.End > MinutesPerDay {
			continue
		}
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })

	merged := out[:0]
	for _, iv := range out {
		if n := len(merged); n > 0 && iv.Start <= merged[n-1].End {
			if iv.End > merged[n-1].End {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
