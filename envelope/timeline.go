package envelope

import (
	"math"
	"sort"
)

// curve is the trajectory after the last applied ramp: either a held value or
// an exponential approach toward target
type curve struct {
	approach bool
	from     float64 // time the curve starts
	value    float64 // value at from
	target   float64
	tc       float64
	last     float64 // time of the last applied ramp
}

func (c *curve) at(t float64) float64 {
	if !c.approach || t <= c.from {
		return c.value
	}
	return c.target + (c.value-c.target)*math.Exp(-(t-c.from)/c.tc)
}

func (c *curve) apply(r Ramp) {
	switch r.Kind {
	case Approach:
		v := c.at(r.Time)
		*c = curve{approach: true, from: r.Time, value: v, target: r.Value, tc: r.TimeConstant}
	default:
		*c = curve{from: r.Time, value: r.Value}
	}
	c.last = r.Time
}

// Timeline evaluates scheduled ramps the way an automatable gain does: a set
// jumps, a linear ramp runs from the previous ramp's time and value, and an
// approach decays toward its target from wherever the value was. Ramps that
// have started can be folded into the base curve with Compact so the
// schedule does not grow without bound.
//
// A Timeline is not safe for concurrent use; its owner locks it.
type Timeline struct {
	base  curve
	ramps []Ramp
}

// NewTimeline returns a timeline holding initial until the first ramp
func NewTimeline(initial float64) *Timeline {
	return &Timeline{base: curve{value: initial, last: math.Inf(-1)}}
}

// Insert adds r in time order. Ramps at equal times keep insertion order.
func (tl *Timeline) Insert(r Ramp) {
	if r.Kind == Approach && !(r.TimeConstant > 0) {
		r = Ramp{Kind: Set, Time: r.Time, Value: r.Value}
	}
	i := sort.Search(len(tl.ramps), func(i int) bool { return tl.ramps[i].Time > r.Time })
	tl.ramps = append(tl.ramps, Ramp{})
	copy(tl.ramps[i+1:], tl.ramps[i:])
	tl.ramps[i] = r
}

func (tl *Timeline) SetValueAt(value, t float64) {
	tl.Insert(Ramp{Kind: Set, Time: t, Value: value})
}

func (tl *Timeline) LinearRampTo(value, t float64) {
	tl.Insert(Ramp{Kind: Linear, Time: t, Value: value})
}

func (tl *Timeline) ExponentialApproach(target, start, timeConstant float64) {
	tl.Insert(Ramp{Kind: Approach, Time: start, Value: target, TimeConstant: timeConstant})
}

// CancelScheduled drops every ramp at or after t
func (tl *Timeline) CancelScheduled(t float64) {
	i := sort.Search(len(tl.ramps), func(i int) bool { return tl.ramps[i].Time >= t })
	tl.ramps = tl.ramps[:i]
}

// Compact applies every ramp at or before t to the base curve
func (tl *Timeline) Compact(t float64) {
	n := 0
	for n < len(tl.ramps) && tl.ramps[n].Time <= t {
		tl.base.apply(tl.ramps[n])
		n++
	}
	if n > 0 {
		tl.ramps = append(tl.ramps[:0], tl.ramps[n:]...)
	}
}

// Pending returns how many ramps have not been compacted
func (tl *Timeline) Pending() int {
	return len(tl.ramps)
}

// Value evaluates the timeline at t
func (tl *Timeline) Value(t float64) float64 {
	c := tl.base
	for _, r := range tl.ramps {
		if t < r.Time {
			if r.Kind != Linear {
				return c.at(t)
			}
			from := c.last
			v0 := c.at(from)
			if math.IsInf(from, -1) || r.Time <= from {
				return v0
			}
			return v0 + (r.Value-v0)*(t-from)/(r.Time-from)
		}
		c.apply(r)
	}
	return c.at(t)
}
