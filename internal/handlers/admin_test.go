package handlers

import (
	"testing"
	"time"

	"github.com/CesarNXT/vitoria4u-v2-sub001/internal/models"
)

func scheduleWithMonday(intervals ...models.WorkInterval) models.WeekSchedule {
	var ws models.WeekSchedule
	ws[time.Monday] = models.DaySchedule{Enabled: true, Intervals: intervals}
	return ws
}

func TestValidateWeekSchedule(t *testing.T) {
	cases := []struct {
		name     string
		week     models.WeekSchedule
		ok       bool
		badField string
	}{
		{
			name: "disjoint intervals",
			week: scheduleWithMonday(
				models.WorkInterval{Start: 540, End: 720},
				models.WorkInterval{Start: 780, End: 1080},
			),
			ok: true,
		},
		{
			name: "touching intervals",
			week: scheduleWithMonday(
				models.WorkInterval{Start: 540, End: 660},
				models.WorkInterval{Start: 660, End: 720},
			),
			ok: true,
		},
		{
			name: "overlapping intervals",
			week: scheduleWithMonday(
				models.WorkInterval{Start: 540, End: 660},
				models.WorkInterval{Start: 600, End: 720},
			),
			ok:       false,
			badField: "monday",
		},
		{
			name: "overlapping out of order",
			week: scheduleWithMonday(
				models.WorkInterval{Start: 600, End: 720},
				models.WorkInterval{Start: 540, End: 660},
			),
			ok:       false,
			badField: "monday",
		},
		{
			name:     "inverted interval",
			week:     scheduleWithMonday(models.WorkInterval{Start: 720, End: 540}),
			ok:       false,
			badField: "monday",
		},
		{
			name:     "past midnight",
			week:     scheduleWithMonday(models.WorkInterval{Start: 1380, End: 1500}),
			ok:       false,
			badField: "monday",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			field, ok := validateWeekSchedule(tc.week)
			if ok != tc.ok {
				t.Fatalf("validateWeekSchedule ok = %v, want %v", ok, tc.ok)
			}
			if !ok && field != tc.badField {
				t.Fatalf("offending field %q, want %q", field, tc.badField)
			}
		})
	}
}
