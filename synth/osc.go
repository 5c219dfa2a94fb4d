package synth

import (
	"math"

	"go-ambient/tone"
)

// oscillate returns one cycle of w at phase in [0, 1)
func oscillate(w tone.Waveform, phase float64) float64 {
	switch w {
	case tone.Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case tone.Sawtooth:
		return 2*phase - 1
	case tone.Triangle:
		return 1 - 4*math.Abs(phase-0.5)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

func advance(phase, freq, rate float64) float64 {
	_, phase = math.Modf(phase + freq/rate)
	if phase < 0 {
		phase++
	}
	return phase
}
