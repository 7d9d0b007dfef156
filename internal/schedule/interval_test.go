package schedule

import "testing"

func TestIntersect(t *testing.T) {
	iv, ok := Intersect(Interval{Start: 540, End: 720}, Interval{Start: 600, End: 780})
	if !ok {
		t.Fatalf("expected non-empty intersection")
	}
	if iv.Start != 600 || iv.End != 720 {
		t.Fatalf("unexpected intersection: %+v", iv)
	}
}

func TestIntersectDisjoint(t *testing.T) {
	if _, ok := Intersect(Interval{Start: 540, End: 600}, Interval{Start: 600, End: 660}); ok {
		t.Fatalf("touching intervals must not intersect")
	}
}

func TestIntersectInvalidInput(t *testing.T) {
	if _, ok := Intersect(Interval{Start: 600, End: 540}, Interval{Start: 0, End: 1440}); ok {
		t.Fatalf("invalid interval must be discarded")
	}
}

func TestIntersectAll(t *testing.T) {
	business := []Interval{{Start: 540, End: 720}, {Start: 780, End: 1080}}
	professional := []Interval{{Start: 600, End: 840}}

	out := IntersectAll(business, professional)
	if len(out) != 2 {
		t.Fatalf("expected 2 intervals, got %d: %+v", len(out), out)
	}
	if out[0] != (Interval{Start: 600, End: 720}) {
		t.Fatalf("unexpected first interval: %+v", out[0])
	}
	if out[1] != (Interval{Start: 780, End: 840}) {
		t.Fatalf("unexpected second interval: %+v", out[1])
	}
}

func TestIntersectAllEmpty(t *testing.T) {
	out := IntersectAll([]Interval{{Start: 540, End: 720}}, nil)
	if len(out) != 0 {
		t.Fatalf("expected no intervals, got %+v", out)
	}
}
