// Package synth is a software tone backend: voices are mixed sample by sample
// and the clock is the number of samples rendered.
package synth

import (
	"errors"
	"math"
	"sync"

	"go-ambient/envelope"
	"go-ambient/tone"
)

// DefaultSampleRate is used when none is configured
const DefaultSampleRate = 48000

var errDisconnected = errors.New("amplitude is disconnected")

// Engine mixes every live voice into a mono stream. It implements
// tone.Backend.
type Engine struct {
	mu     sync.Mutex
	rate   float64
	frame  int64
	voices []*voice
	gains  []*gain

	scratch []float32
}

// NewEngine creates an engine at sampleRate, or DefaultSampleRate if it is
// not positive
func NewEngine(sampleRate int) *Engine {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Engine{rate: float64(sampleRate)}
}

// SampleRate returns the engine rate in Hz
func (e *Engine) SampleRate() int {
	return int(e.rate)
}

// Now returns the time of the next sample to be rendered, in seconds
func (e *Engine) Now() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return float64(e.frame) / e.rate
}

func (e *Engine) NewAmplitude(initial float64) (tone.Amplitude, error) {
	g := &gain{tl: envelope.NewTimeline(initial)}
	e.mu.Lock()
	e.gains = append(e.gains, g)
	e.mu.Unlock()
	return &amplitude{e: e, g: g}, nil
}

func (e *Engine) NewVoice(w tone.Waveform, out tone.Amplitude) (tone.Voice, error) {
	amp, ok := out.(*amplitude)
	if !ok || amp.e != e {
		return nil, tone.Unavailable("voice", errors.New("amplitude belongs to another backend"))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if amp.g.disconnected {
		return nil, tone.Unavailable("voice", errDisconnected)
	}
	v := &voice{e: e, wave: w, out: amp.g}
	e.voices = append(e.voices, v)
	return v, nil
}

// Voices returns how many voices are waiting to play or sounding
func (e *Engine) Voices() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.voices)
}

// Render fills buf with the next len(buf) samples and then runs the
// completion callbacks of voices that ended within it
func (e *Engine) Render(buf []float32) {
	for _, fn := range e.render(buf) {
		fn()
	}
}

// Advance renders and discards d seconds of audio
func (e *Engine) Advance(d float64) {
	n := int(math.Round(d * e.rate))
	for n > 0 {
		e.mu.Lock()
		if len(e.scratch) == 0 {
			e.scratch = make([]float32, 1024)
		}
		buf := e.scratch[:min(n, len(e.scratch))]
		e.mu.Unlock()

		e.Render(buf)
		n -= len(buf)
	}
}

// render mixes buf under the lock and returns the completions to run
func (e *Engine) render(buf []float32) []func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := float64(e.frame) / e.rate
	e.compact(start)

	var ended []func()
	for i := range buf {
		t := float64(e.frame+int64(i)) / e.rate
		var mix float64
		for _, v := range e.voices {
			if v.ended || v.disconnected || !v.started || t < v.start {
				continue
			}
			if v.stopped && t >= v.stop {
				v.ended = true
				if v.onEnded != nil {
					ended = append(ended, v.onEnded)
					v.onEnded = nil
				}
				continue
			}
			mix += oscillate(v.wave, v.phase) * v.out.value(t)
			v.phase = advance(v.phase, v.freq, e.rate)
		}
		buf[i] = float32(max(-1, min(1, mix)))
	}
	e.frame += int64(len(buf))

	live := e.voices[:0]
	for _, v := range e.voices {
		if !v.ended && !v.disconnected {
			live = append(live, v)
		}
	}
	clear(e.voices[len(live):])
	e.voices = live
	return ended
}

func (e *Engine) compact(t float64) {
	live := e.gains[:0]
	for _, g := range e.gains {
		if g.disconnected {
			continue
		}
		g.tl.Compact(t)
		live = append(live, g)
	}
	clear(e.gains[len(live):])
	e.gains = live
}

// gain is the state behind an amplitude, guarded by the engine lock
type gain struct {
	tl           *envelope.Timeline
	disconnected bool
}

func (g *gain) value(t float64) float64 {
	if g.disconnected {
		return 0
	}
	return g.tl.Value(t)
}

type amplitude struct {
	e *Engine
	g *gain
}

func (a *amplitude) SetValueAt(value, t float64) {
	a.e.mu.Lock()
	a.g.tl.SetValueAt(value, t)
	a.e.mu.Unlock()
}

func (a *amplitude) LinearRampTo(value, t float64) {
	a.e.mu.Lock()
	a.g.tl.LinearRampTo(value, t)
	a.e.mu.Unlock()
}

func (a *amplitude) ExponentialApproach(target, start, timeConstant float64) {
	a.e.mu.Lock()
	a.g.tl.ExponentialApproach(target, start, timeConstant)
	a.e.mu.Unlock()
}

func (a *amplitude) CancelScheduled(t float64) {
	a.e.mu.Lock()
	a.g.tl.CancelScheduled(t)
	a.e.mu.Unlock()
}

func (a *amplitude) Disconnect() {
	a.e.mu.Lock()
	a.g.disconnected = true
	a.e.mu.Unlock()
}

type voice struct {
	e     *Engine
	wave  tone.Waveform
	out   *gain
	freq  float64
	phase float64

	start, stop      float64
	started, stopped bool
	ended            bool
	disconnected     bool
	onEnded          func()
}

func (v *voice) SetFrequency(hz float64) {
	v.e.mu.Lock()
	v.freq = hz
	v.e.mu.Unlock()
}

func (v *voice) Start(t float64) {
	v.e.mu.Lock()
	v.start, v.started = t, true
	v.e.mu.Unlock()
}

func (v *voice) Stop(t float64) {
	v.e.mu.Lock()
	v.stop, v.stopped = t, true
	v.e.mu.Unlock()
}

func (v *voice) OnEnded(fn func()) {
	v.e.mu.Lock()
	v.onEnded = fn
	v.e.mu.Unlock()
}

func (v *voice) Disconnect() {
	v.e.mu.Lock()
	v.disconnected = true
	v.onEnded = nil
	v.e.mu.Unlock()
}
