package midi

import "math"

// DefaultBendRange is the pitch bend range most synths ship with, in semitones
const DefaultBendRange = 2.0

// NoteForFrequency returns the nearest key to hz and the pitch bend that
// makes up the difference, for a synth bending bendRange semitones either
// way. ok is false for silence and for pitches outside the keyboard.
func NoteForFrequency(hz, bendRange float64) (key uint8, bend int16, ok bool) {
	if !(hz > 0) || math.IsInf(hz, 0) {
		return 0, 0, false
	}
	n := 69 + 12*math.Log2(hz/440)
	k := math.Round(n)
	if k < 0 || k > 127 {
		return 0, 0, false
	}
	if !(bendRange > 0) {
		bendRange = DefaultBendRange
	}
	b := math.Round((n - k) / bendRange * 8192)
	b = max(-8192, min(8191, b))
	return uint8(k), int16(b), true
}

// expressionValue maps a gain to a CC value, full scale at 127
func expressionValue(gain, fullScale float64) uint8 {
	if !(fullScale > 0) || !(gain > 0) {
		return 0
	}
	v := math.Round(gain / fullScale * 127)
	return uint8(min(127, v))
}
