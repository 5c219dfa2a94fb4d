// Package tone declares the capabilities the note schedulers consume: an audio
// clock, oscillator voices with completion notification, and amplitude
// automation. Backends in synth and midi implement them.
package tone

import (
	"errors"
	"fmt"
)

// Waveform identifies the oscillator shape
type Waveform string

const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Sawtooth Waveform = "sawtooth"
	Triangle Waveform = "triangle"
)

// ParseWaveform maps a config string to a Waveform. Empty means Square.
func ParseWaveform(s string) (Waveform, error) {
	switch w := Waveform(s); w {
	case "":
		return Square, nil
	case Sine, Square, Sawtooth, Triangle:
		return w, nil
	}
	return "", fmt.Errorf("unknown waveform %q", s)
}

// Clock reports monotonic audio time in seconds
type Clock interface {
	Now() float64
}

// Amplitude is a schedulable gain stage. Voices created against it are
// scaled by its value over time.
type Amplitude interface {
	SetValueAt(value, t float64)
	LinearRampTo(value, t float64)
	// ExponentialApproach moves toward target from start with the given time
	// constant, never reaching it exactly
	ExponentialApproach(target, start, timeConstant float64)
	// CancelScheduled drops every change scheduled at or after t
	CancelScheduled(t float64)
	Disconnect()
}

// Voice is one oscillator. Once its scheduled stop time passes the backend
// invokes the completion callback exactly once, unless it was cleared first.
type Voice interface {
	SetFrequency(hz float64)
	Start(t float64)
	Stop(t float64)
	// OnEnded registers the completion callback; nil clears it
	OnEnded(fn func())
	Disconnect()
}

// Backend creates voices and amplitude stages against one clock
type Backend interface {
	Clock
	NewAmplitude(initial float64) (Amplitude, error)
	NewVoice(w Waveform, out Amplitude) (Voice, error)
}

// ErrCapabilityUnavailable is the single failure kind reported by play/stop
var ErrCapabilityUnavailable = errors.New("capability unavailable")

// CapabilityError describes which capability failed
type CapabilityError struct {
	Capability string // "clock", "voice", "amplitude", "output"
	Cause      error
}

func (e *CapabilityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", e.Capability, ErrCapabilityUnavailable, e.Cause)
	}
	return fmt.Sprintf("%s %s", e.Capability, ErrCapabilityUnavailable)
}

func (e *CapabilityError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrCapabilityUnavailable
func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapabilityUnavailable
}

// Unavailable wraps cause as a CapabilityError. A cause that already is one
// is returned unchanged.
func Unavailable(capability string, cause error) error {
	var ce *CapabilityError
	if errors.As(cause, &ce) {
		return cause
	}
	return &CapabilityError{Capability: capability, Cause: cause}
}
