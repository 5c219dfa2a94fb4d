package sequencer

import (
	"fmt"
	"math"
)

// Pitch identifies one voice of the ambient player. The set is closed; every
// pitch owns exactly one slot.
type Pitch int

const (
	F2 Pitch = iota
	Ab2
	C3
	Db3
	Eb3
	F3
	Ab3
	F4
	C5
	Eb5
	NumPitches
)

var pitchNames = [NumPitches]string{"F2", "A2b", "C3", "D3b", "E3b", "F3", "A3b", "F4", "C5", "E5b"}

// reference frequency and semitone offset for each pitch
var pitchTuning = [NumPitches]struct {
	ref   float64
	steps float64
}{
	F2:  {110, -4},
	Ab2: {110, -1},
	C3:  {220, -9},
	Db3: {220, -8},
	Eb3: {220, -6},
	F3:  {220, -4},
	Ab3: {220, -1},
	F4:  {440, -4},
	C5:  {440, -9},
	Eb5: {440, -6},
}

func (p Pitch) String() string {
	if p < 0 || p >= NumPitches {
		return fmt.Sprintf("Pitch(%d)", int(p))
	}
	return pitchNames[p]
}

// Frequency returns the pitch in Hz
func (p Pitch) Frequency() float64 {
	if p < 0 || p >= NumPitches {
		return 0
	}
	t := pitchTuning[p]
	return t.ref * math.Pow(2, t.steps/12)
}

// ParsePitch looks a pitch up by name
func ParsePitch(name string) (Pitch, bool) {
	for i, n := range pitchNames {
		if n == name {
			return Pitch(i), true
		}
	}
	return 0, false
}

// Pitch groups of the ambient chord, in draw order
var (
	BassPitches = []Pitch{F2, Ab2, C3, Db3, Eb3, F3, Ab3}
	LeadPitches = []Pitch{F4, C5, Eb5}
)

// Rest is the silent pseudo-pitch of the looper scale
const Rest = 0.0

// AMinor is the natural minor scale from 220 Hz over one octave, followed by
// the rest
var AMinor = scale(220, 0, 2, 3, 5, 7, 8, 10, 12)

func scale(root float64, steps ...float64) []float64 {
	s := make([]float64, 0, len(steps)+1)
	for _, st := range steps {
		s = append(s, root*math.Pow(2, st/12))
	}
	return append(s, Rest)
}
