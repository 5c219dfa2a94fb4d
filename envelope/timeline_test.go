package envelope

import (
	"math"
	"testing"
)

func TestTimelineSetAndLinear(t *testing.T) {
	tl := NewTimeline(0.3)
	if v := tl.Value(5); v != 0.3 {
		t.Fatalf("initial value %v", v)
	}

	tl.SetValueAt(0, 1)
	tl.LinearRampTo(1, 2)
	tl.LinearRampTo(0, 4)

	tests := []struct{ at, want float64 }{
		{0.5, 0.3},
		{1, 0},
		{1.5, 0.5},
		{2, 1},
		{3, 0.5},
		{4, 0},
		{9, 0},
	}
	for _, tt := range tests {
		if got := tl.Value(tt.at); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Value(%v) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestTimelineApproach(t *testing.T) {
	s := ExponentialSwell(0, 20, 0.1)
	tl := NewTimeline(0)
	for _, r := range s {
		tl.Insert(r)
	}

	// attack constant is 2s, hold at 6.6s, release constant 6.6s
	want := 0.1 * (1 - math.Exp(-1))
	if got := tl.Value(2); math.Abs(got-want) > 1e-12 {
		t.Errorf("one time constant in: %v, want %v", got, want)
	}
	// the hold time is computed at run time, so read it from the schedule
	hold := s[2].Time
	if math.Abs(hold-6.6) > 1e-12 {
		t.Fatalf("hold at %v", hold)
	}
	if got := tl.Value(hold); got != 0.1 {
		t.Errorf("hold point %v", got)
	}
	want = 0.1 * math.Exp(-1)
	if got := tl.Value(hold + s[3].TimeConstant); math.Abs(got-want) > 1e-12 {
		t.Errorf("release %v, want %v", got, want)
	}
}

func TestTimelineCompactIsTransparent(t *testing.T) {
	build := func() *Timeline {
		tl := NewTimeline(0)
		tl.SetValueAt(0, 0)
		tl.ExponentialApproach(1, 0, 0.5)
		tl.LinearRampTo(0.2, 3)
		tl.ExponentialApproach(0, 5, 1)
		return tl
	}
	ref := build()
	tl := build()
	for _, at := range []float64{0.25, 1, 2.9, 3, 4, 5.5, 8} {
		tl.Compact(at)
		if got, want := tl.Value(at), ref.Value(at); math.Abs(got-want) > 1e-12 {
			t.Errorf("t=%v: compacted %v, reference %v", at, got, want)
		}
	}
	if tl.Pending() != 0 {
		t.Errorf("%d ramps left after compaction", tl.Pending())
	}
}

func TestTimelineCancel(t *testing.T) {
	tl := NewTimeline(0)
	tl.SetValueAt(0.5, 1)
	tl.SetValueAt(0.7, 2)
	tl.SetValueAt(0.9, 3)
	tl.CancelScheduled(2)
	if tl.Pending() != 1 {
		t.Fatalf("%d ramps after cancel", tl.Pending())
	}
	if got := tl.Value(5); got != 0.5 {
		t.Errorf("value after cancel %v", got)
	}
}

func TestTimelineInsertIsStable(t *testing.T) {
	tl := NewTimeline(0)
	tl.ExponentialApproach(1, 1, 1)
	tl.SetValueAt(0, 0)
	tl.SetValueAt(0.5, 1)
	if tl.ramps[0].Kind != Set || tl.ramps[1].Kind != Approach || tl.ramps[2].Value != 0.5 {
		t.Fatalf("order %+v", tl.ramps)
	}
}

func TestTimelineDegenerateApproach(t *testing.T) {
	tl := NewTimeline(0)
	tl.ExponentialApproach(0.4, 1, 0)
	if got := tl.Value(1); got != 0.4 {
		t.Fatalf("zero time constant gave %v", got)
	}
}
