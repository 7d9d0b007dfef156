package schedule

import "sort"

// Interval is a half-open [Start, End) range expressed in minutes of day.
type Interval struct {
	Start int
	End   int
}

func (i Interval) Valid() bool {
	return i.Start < i.End
}

func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// Intersect returns the overlap of a and b. ok is false when the overlap is
// empty or either input is malformed.
func Intersect(a, b Interval) (Interval, bool) {
	if !a.Valid() || !b.Valid() {
		return Interval{}, false
	}
	out := Interval{Start: max(a.Start, b.Start), End: min(a.End, b.End)}
	if !out.Valid() {
		return Interval{}, false
	}
	return out, true
}

// IntersectAll computes every pairwise intersection between the two lists,
// discarding empty results, and returns them sorted by start. Invalid inputs
// are skipped rather than reported.
func IntersectAll(as, bs []Interval) []Interval {
	out := make([]Interval, 0, len(as))
	for _, a := range as {
		for _, b := range bs {
			if iv, ok := Intersect(a, b); ok {
				out = append(out, iv)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
