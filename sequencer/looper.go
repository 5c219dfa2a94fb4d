package sequencer

import (
	"math"
	"math/rand"
	"sync"

	"go-ambient/debug"
	"go-ambient/envelope"
	"go-ambient/tone"
)

// LooperConfig holds the single-voice looper constants
type LooperConfig struct {
	Peak      float64
	Waveform  tone.Waveform
	Tempo     float64   // beats per minute
	Durations []float64 // note lengths in beats
	Scale     []float64 // Hz; Rest is silent
	Fade      float64   // seconds
	Gap       float64   // silence between notes, seconds
}

// DefaultLooperConfig returns the square-wave A minor looper at 120 bpm
func DefaultLooperConfig() LooperConfig {
	return LooperConfig{
		Peak:      0.1,
		Waveform:  tone.Square,
		Tempo:     120,
		Durations: []float64{2, 1, 0.5, 0.25},
		Scale:     AMinor,
		Fade:      envelope.FadeTime,
		Gap:       0.005,
	}
}

type systemSource struct{}

func (systemSource) Intn(n int) int { return rand.Intn(n) }

// loopNote is the continuation registered on the sounding voice: when it
// ends, the looper plays freq at when
type loopNote struct {
	l    *Looper
	when float64
	freq float64
}

func (n *loopNote) fire() {
	l := n.l
	l.mu.Lock()
	defer l.unlockAndNotify()

	if l.task != n {
		return
	}
	if err := l.playLocked(n.when, n.freq); err != nil {
		l.err = err
		debug.Log("looper", "reschedule failed: %v", err)
	}
}

// Looper plays one voice forever: each note picks the length of itself and the
// pitch of the next, and the note's completion starts that next note.
type Looper struct {
	mu      sync.Mutex
	backend tone.Backend
	cfg     LooperConfig
	src     Source

	gain  tone.Amplitude // shared by every note
	voice tone.Voice
	task  *loopNote
	note  Note

	onNote  func(Note)
	pending []Note // scheduled under the lock, reported after it
	err     error
}

// NewLooper creates an idle looper
func NewLooper(backend tone.Backend, cfg LooperConfig) *Looper {
	if cfg.Tempo <= 0 {
		cfg.Tempo = 120
	}
	if len(cfg.Durations) == 0 {
		cfg.Durations = DefaultLooperConfig().Durations
	}
	if len(cfg.Scale) == 0 {
		cfg.Scale = AMinor
	}
	if cfg.Waveform == "" {
		cfg.Waveform = tone.Square
	}
	return &Looper{backend: backend, cfg: cfg, src: systemSource{}}
}

// SetSource replaces the index source used for durations and pitches
func (l *Looper) SetSource(src Source) {
	l.mu.Lock()
	l.src = src
	l.mu.Unlock()
}

// SetOnNote registers a hook called for every scheduled note. It runs after
// the looper is unlocked, so it may call Stop or Play.
func (l *Looper) SetOnNote(fn func(Note)) {
	l.mu.Lock()
	l.onNote = fn
	l.mu.Unlock()
}

func (l *Looper) unlockAndNotify() {
	notes, fn := l.pending, l.onNote
	l.pending = nil
	l.mu.Unlock()
	if fn == nil {
		return
	}
	for _, n := range notes {
		fn(n)
	}
}

// Play starts the first scale degree now
func (l *Looper) Play() error {
	l.mu.Lock()
	defer l.unlockAndNotify()

	now := l.backend.Now()
	if math.IsNaN(now) || math.IsInf(now, 0) {
		return tone.Unavailable("clock", errClock)
	}
	return l.playLocked(now, l.cfg.Scale[0])
}

// PlayAt starts freq at when, superseding any sounding note
func (l *Looper) PlayAt(when, freq float64) error {
	l.mu.Lock()
	defer l.unlockAndNotify()
	return l.playLocked(when, freq)
}

func (l *Looper) playLocked(when, freq float64) error {
	l.stopLocked()

	if l.gain == nil {
		g, err := l.backend.NewAmplitude(l.cfg.Peak)
		if err != nil {
			return tone.Unavailable("amplitude", err)
		}
		l.gain = g
	}
	v, err := l.backend.NewVoice(l.cfg.Waveform, l.gain)
	if err != nil {
		return tone.Unavailable("voice", err)
	}
	v.SetFrequency(freq)
	v.Start(when)

	beats := l.cfg.Durations[l.src.Intn(len(l.cfg.Durations))]
	duration := envelope.ClampDuration(60 / l.cfg.Tempo * beats)

	peak := l.cfg.Peak
	if freq == Rest {
		peak = 0
	}
	env := envelope.LinearFade(when, duration, peak, l.cfg.Fade)
	env.Apply(l.gain)
	end := env.End()
	v.Stop(end)

	next := l.cfg.Scale[l.src.Intn(len(l.cfg.Scale))]

	task := &loopNote{l: l, when: end + l.cfg.Gap, freq: next}
	l.voice, l.task = v, task
	l.note = Note{Voice: "looper", Frequency: freq, When: when, Duration: duration}
	debug.Log("note", "looper freq=%.2f when=%.3f dur=%.3f next=%.2f", freq, when, duration, next)
	l.pending = append(l.pending, l.note)

	v.OnEnded(task.fire)
	return nil
}

// Stop silences the looper. Calling it while idle does nothing.
func (l *Looper) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *Looper) stopLocked() {
	if l.voice == nil {
		return
	}
	l.voice.OnEnded(nil)
	l.gain.CancelScheduled(0)
	l.voice.Disconnect()
	l.voice, l.task = nil, nil
	l.pending = nil
}

// Playing reports whether a note is owned
func (l *Looper) Playing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.voice != nil
}

// Voices returns the single looper slot
func (l *Looper) Voices() []VoiceStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := VoiceStatus{Name: "looper"}
	if l.voice != nil {
		st.Active = true
		st.Frequency = l.note.Frequency
		st.When = l.note.When
		st.Duration = l.note.Duration
	}
	return []VoiceStatus{st}
}

// Err returns the last failure raised while rescheduling from a completion
func (l *Looper) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
