// Package tonetest provides a recording tone.Backend with a manual clock.
package tonetest

import (
	"math"
	"sync"

	"go-ambient/tone"
)

// Ramp kinds recorded by Amplitude
const (
	KindSet      = "set"
	KindLinear   = "linear"
	KindApproach = "approach"
)

// Ramp is one recorded amplitude change
type Ramp struct {
	Kind         string
	Value        float64
	Time         float64
	TimeConstant float64
}

// Amplitude records every change scheduled on it
type Amplitude struct {
	Initial      float64
	Ramps        []Ramp
	Cancels      []float64
	Disconnected bool
}

func (a *Amplitude) SetValueAt(value, t float64) {
	a.Ramps = append(a.Ramps, Ramp{Kind: KindSet, Value: value, Time: t})
}

func (a *Amplitude) LinearRampTo(value, t float64) {
	a.Ramps = append(a.Ramps, Ramp{Kind: KindLinear, Value: value, Time: t})
}

func (a *Amplitude) ExponentialApproach(target, start, timeConstant float64) {
	a.Ramps = append(a.Ramps, Ramp{Kind: KindApproach, Value: target, Time: start, TimeConstant: timeConstant})
}

func (a *Amplitude) CancelScheduled(t float64) {
	a.Cancels = append(a.Cancels, t)
	kept := a.Ramps[:0]
	for _, r := range a.Ramps {
		if r.Time < t {
			kept = append(kept, r)
		}
	}
	a.Ramps = kept
}

func (a *Amplitude) Disconnect() { a.Disconnected = true }

// Voice records its schedule and holds its completion callback until the
// backend clock passes the stop time
type Voice struct {
	backend *Backend

	Waveform     tone.Waveform
	Out          *Amplitude
	Frequency    float64
	StartAt      float64
	StopAt       float64
	Started      bool
	Stopped      bool
	Ended        bool
	Disconnected bool

	onEnded func()
}

func (v *Voice) SetFrequency(hz float64) { v.Frequency = hz }

func (v *Voice) Start(t float64) {
	v.StartAt = t
	v.Started = true
}

func (v *Voice) Stop(t float64) {
	v.StopAt = t
	v.Stopped = true
}

func (v *Voice) OnEnded(fn func()) {
	v.backend.mu.Lock()
	v.onEnded = fn
	v.backend.mu.Unlock()
}

func (v *Voice) Disconnect() {
	v.backend.mu.Lock()
	v.Disconnected = true
	v.backend.mu.Unlock()
}

// HasCallback reports whether a completion callback is registered
func (v *Voice) HasCallback() bool {
	v.backend.mu.Lock()
	defer v.backend.mu.Unlock()
	return v.onEnded != nil
}

// Backend is a tone.Backend whose clock only moves when told to
type Backend struct {
	mu  sync.Mutex
	now float64

	Voices     []*Voice
	Amplitudes []*Amplitude

	// Failures injected into the factory methods
	VoiceErr     error
	AmplitudeErr error
	BrokenClock  bool
}

// New creates a backend at time zero
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Now() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.BrokenClock {
		return math.NaN()
	}
	return b.now
}

// SetNow moves the clock without ending any voice
func (b *Backend) SetNow(t float64) {
	b.mu.Lock()
	b.now = t
	b.mu.Unlock()
}

func (b *Backend) NewAmplitude(initial float64) (tone.Amplitude, error) {
	if b.AmplitudeErr != nil {
		return nil, b.AmplitudeErr
	}
	a := &Amplitude{Initial: initial}
	b.mu.Lock()
	b.Amplitudes = append(b.Amplitudes, a)
	b.mu.Unlock()
	return a, nil
}

func (b *Backend) NewVoice(w tone.Waveform, out tone.Amplitude) (tone.Voice, error) {
	if b.VoiceErr != nil {
		return nil, b.VoiceErr
	}
	amp, _ := out.(*Amplitude)
	v := &Voice{backend: b, Waveform: w, Out: amp}
	b.mu.Lock()
	b.Voices = append(b.Voices, v)
	b.mu.Unlock()
	return v, nil
}

// Live returns voices that are neither ended nor disconnected
func (b *Backend) Live() []*Voice {
	b.mu.Lock()
	defer b.mu.Unlock()
	var live []*Voice
	for _, v := range b.Voices {
		if !v.Ended && !v.Disconnected {
			live = append(live, v)
		}
	}
	return live
}

// AdvanceTo moves the clock to t, ending voices in stop-time order and firing
// their callbacks as it goes. Callbacks may schedule further voices; those
// end too if their stop time is not after t.
func (b *Backend) AdvanceTo(t float64) {
	for {
		b.mu.Lock()
		var next *Voice
		for _, v := range b.Voices {
			if v.Ended || v.Disconnected || !v.Stopped || v.StopAt > t {
				continue
			}
			if next == nil || v.StopAt < next.StopAt {
				next = v
			}
		}
		if next == nil {
			b.now = t
			b.mu.Unlock()
			return
		}
		if next.StopAt > b.now {
			b.now = next.StopAt
		}
		next.Ended = true
		fn := next.onEnded
		next.onEnded = nil
		b.mu.Unlock()

		if fn != nil {
			fn()
		}
	}
}
