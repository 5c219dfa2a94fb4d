// Package envelope computes amplitude ramp schedules for single notes.
package envelope

import (
	"fmt"
	"math"

	"go-ambient/tone"
)

const (
	// FadeTime is the linear fade length used by the looper
	FadeTime = 0.005
	// MinDuration is the shortest note a schedule is built for
	MinDuration = 0.001

	swellAttack  = 0.1
	swellHold    = 0.33
	swellRelease = 0.33
)

// Kind is how an amplitude reaches a ramp's value
type Kind int

const (
	Set Kind = iota
	Linear
	Approach
)

func (k Kind) String() string {
	switch k {
	case Set:
		return "set"
	case Linear:
		return "linear"
	case Approach:
		return "approach"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Ramp is one scheduled amplitude change. For Approach, Time is when the
// approach begins and TimeConstant how fast it converges.
type Ramp struct {
	Kind         Kind
	Time         float64
	Value        float64
	TimeConstant float64
}

// Schedule is the four amplitude changes shaping one note
type Schedule [4]Ramp

// ClampDuration maps non-positive and NaN durations to MinDuration
func ClampDuration(d float64) float64 {
	if !(d > MinDuration) || math.IsInf(d, 0) {
		return MinDuration
	}
	return d
}

func clampPeak(peak float64) float64 {
	if !(peak > 0) || math.IsInf(peak, 0) {
		return 0
	}
	return peak
}

// LinearFade starts at zero, rises linearly to peak over fade seconds, holds,
// and falls linearly back to zero so that it lands on start+duration. When the
// note is too short for two fades, the fades shrink to a third of it.
func LinearFade(start, duration, peak, fade float64) Schedule {
	duration = ClampDuration(duration)
	peak = clampPeak(peak)
	if !(fade > 0) || 2*fade >= duration {
		fade = duration / 3
	}
	end := start + duration
	return Schedule{
		{Kind: Set, Time: start, Value: 0},
		{Kind: Linear, Time: start + fade, Value: peak},
		{Kind: Linear, Time: end - fade, Value: peak},
		{Kind: Linear, Time: end, Value: 0},
	}
}

// ExponentialSwell sets zero at start and approaches peak with a time constant
// of a tenth of the duration. A third of the way in it pins the value at peak
// and from there approaches zero with a time constant of a third of the
// duration.
func ExponentialSwell(start, duration, peak float64) Schedule {
	duration = ClampDuration(duration)
	peak = clampPeak(peak)
	hold := start + duration*swellHold
	return Schedule{
		{Kind: Set, Time: start, Value: 0},
		{Kind: Approach, Time: start, Value: peak, TimeConstant: duration * swellAttack},
		{Kind: Set, Time: hold, Value: peak},
		{Kind: Approach, Time: hold, Value: 0, TimeConstant: duration * swellRelease},
	}
}

// Apply schedules every ramp on a
func (s Schedule) Apply(a tone.Amplitude) {
	for _, r := range s {
		switch r.Kind {
		case Set:
			a.SetValueAt(r.Value, r.Time)
		case Linear:
			a.LinearRampTo(r.Value, r.Time)
		case Approach:
			a.ExponentialApproach(r.Value, r.Time, r.TimeConstant)
		}
	}
}

// End returns the time of the last ramp
func (s Schedule) End() float64 {
	return s[len(s)-1].Time
}

// Validate checks that times are finite and never go backwards, that every
// value lies in [0, peak], and that approach time constants are positive.
// Ramps sharing an instant are only allowed as a set followed by an approach.
func (s Schedule) Validate(peak float64) error {
	for i, r := range s {
		if math.IsNaN(r.Time) || math.IsInf(r.Time, 0) {
			return fmt.Errorf("ramp %d: time %v", i, r.Time)
		}
		if r.Value < 0 || r.Value > peak || math.IsNaN(r.Value) {
			return fmt.Errorf("ramp %d: value %v outside [0, %v]", i, r.Value, peak)
		}
		if r.Kind == Approach && !(r.TimeConstant > 0) {
			return fmt.Errorf("ramp %d: time constant %v", i, r.TimeConstant)
		}
		if i == 0 {
			continue
		}
		prev := s[i-1]
		switch {
		case r.Time < prev.Time:
			return fmt.Errorf("ramp %d: time %v before %v", i, r.Time, prev.Time)
		case r.Time == prev.Time && !(prev.Kind == Set && r.Kind == Approach):
			return fmt.Errorf("ramp %d: %s shares time %v with %s", i, r.Kind, r.Time, prev.Kind)
		}
	}
	return nil
}
