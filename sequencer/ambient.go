package sequencer

import (
	"errors"
	"math"
	"sync"

	"go-ambient/debug"
	"go-ambient/envelope"
	"go-ambient/generator"
	"go-ambient/tone"
)

var errClock = errors.New("clock returned a non-finite time")

// Group is a set of pitches whose first notes are drawn together. For each
// pitch: onset = r*OnsetSpread, period = r*PeriodSpread + PeriodMin and
// duration = period * (r*DurationSpread + DurationMin).
type Group struct {
	Name           string
	Pitches        []Pitch
	OnsetSpread    float64
	PeriodMin      float64
	PeriodSpread   float64
	DurationMin    float64
	DurationSpread float64
}

// DefaultGroups are the bass and lead voices, in draw order
func DefaultGroups() []Group {
	return []Group{
		{Name: "bass", Pitches: BassPitches, OnsetSpread: 15, PeriodMin: 15, PeriodSpread: 10, DurationMin: 0.125, DurationSpread: 0.25},
		{Name: "lead", Pitches: LeadPitches, OnsetSpread: 15, PeriodMin: 6, PeriodSpread: 3, DurationMin: 0.125, DurationSpread: 0.25},
	}
}

// The explicit float64 conversions keep the compiler from fusing the
// multiply-add, which would change results on some architectures.

func (g *Group) duration(r, period float64) float64 {
	return period * (float64(r*g.DurationSpread) + g.DurationMin)
}

// draw takes onsets, then periods, then durations for every pitch in order
func (g *Group) draw(gen *generator.Generator) (onsets, periods, durations []float64) {
	n := len(g.Pitches)
	onsets = make([]float64, n)
	periods = make([]float64, n)
	durations = make([]float64, n)
	for i := range onsets {
		onsets[i] = gen.Float64() * g.OnsetSpread
	}
	for i := range periods {
		periods[i] = float64(gen.Float64()*g.PeriodSpread) + g.PeriodMin
	}
	for i := range durations {
		durations[i] = g.duration(gen.Float64(), periods[i])
	}
	return onsets, periods, durations
}

// AmbientConfig holds the ambient player constants
type AmbientConfig struct {
	Peak     float64
	Waveform tone.Waveform
	Groups   []Group
	Variant  generator.Variant
}

// DefaultAmbientConfig returns square-wave voices at 0.1 peak
func DefaultAmbientConfig() AmbientConfig {
	return AmbientConfig{
		Peak:     0.1,
		Waveform: tone.Square,
		Groups:   DefaultGroups(),
		Variant:  generator.VariantLehmer,
	}
}

// ambientSlot is the fixed storage for one pitch. It is idle when voice is nil.
type ambientSlot struct {
	voice tone.Voice
	gain  tone.Amplitude
	task  *ambientNote
	group *Group
	note  Note
}

// ambientNote is the continuation for one pitch: when its voice ends, the
// next note starts at when with the pre-drawn duration
type ambientNote struct {
	a        *Ambient
	pitch    Pitch
	when     float64
	duration float64
	period   float64
}

func (n *ambientNote) fire() {
	a := n.a
	a.mu.Lock()
	defer a.unlockAndNotify()

	if a.slots[n.pitch].task != n {
		return
	}
	if err := a.playNoteLocked(n.pitch, n.when, n.duration, n.period); err != nil {
		a.err = err
		debug.Log("ambient", "%s reschedule failed: %v", n.pitch, err)
	}
}

// Ambient runs one independent, self-rescheduling loop per pitch. All loops
// share one seeded generator.
type Ambient struct {
	mu      sync.Mutex
	backend tone.Backend
	entropy generator.EntropySource
	gen     *generator.Generator
	cfg     AmbientConfig

	slots   [NumPitches]ambientSlot
	seed    string
	playing bool

	onNote  func(Note)
	pending []Note // scheduled under the lock, reported after it
	err     error
}

// NewAmbient creates an idle ambient player
func NewAmbient(backend tone.Backend, cfg AmbientConfig) *Ambient {
	if cfg.Groups == nil {
		cfg.Groups = DefaultGroups()
	}
	if cfg.Waveform == "" {
		cfg.Waveform = tone.Square
	}
	return &Ambient{
		backend: backend,
		entropy: generator.SystemEntropy{},
		gen:     generator.New(cfg.Variant),
		cfg:     cfg,
	}
}

// SetEntropy replaces the source used when Play gets an empty seed
func (a *Ambient) SetEntropy(src generator.EntropySource) {
	a.mu.Lock()
	a.entropy = src
	a.mu.Unlock()
}

// SetOnNote registers a hook called for every scheduled note. It runs after
// the player is unlocked, so it may call Stop or Play.
func (a *Ambient) SetOnNote(fn func(Note)) {
	a.mu.Lock()
	a.onNote = fn
	a.mu.Unlock()
}

// unlockAndNotify releases the lock and then reports the notes scheduled
// while it was held
func (a *Ambient) unlockAndNotify() {
	notes, fn := a.pending, a.onNote
	a.pending = nil
	a.mu.Unlock()
	if fn == nil {
		return
	}
	for _, n := range notes {
		fn(n)
	}
}

// Play stops any running performance, seeds the generator and starts every
// pitch. An empty seed is replaced by one from the entropy source.
func (a *Ambient) Play(seed string) error {
	a.mu.Lock()
	defer a.unlockAndNotify()

	a.stopLocked()

	now := a.backend.Now()
	if math.IsNaN(now) || math.IsInf(now, 0) {
		return tone.Unavailable("clock", errClock)
	}

	seed = generator.ResolveSeed(seed, a.entropy)
	a.seed = seed
	a.err = nil
	a.gen.Seed(seed)
	debug.Log("seed", "Seed %s", seed)

	for gi := range a.cfg.Groups {
		g := &a.cfg.Groups[gi]
		onsets, periods, durations := g.draw(a.gen)
		for i, p := range g.Pitches {
			a.slots[p].group = g
			if err := a.playNoteLocked(p, now+onsets[i], durations[i], periods[i]); err != nil {
				a.stopLocked()
				return err
			}
		}
	}
	a.playing = true
	return nil
}

// PlayNote starts one note for p at when, replacing whatever p was playing,
// and arranges for the pitch to repeat every period.
func (a *Ambient) PlayNote(p Pitch, when, duration, period float64) error {
	a.mu.Lock()
	defer a.unlockAndNotify()
	if p < 0 || p >= NumPitches {
		return nil
	}
	if err := a.playNoteLocked(p, when, duration, period); err != nil {
		return err
	}
	a.playing = true
	return nil
}

func (a *Ambient) playNoteLocked(p Pitch, when, duration, period float64) error {
	a.releaseLocked(p)

	duration = envelope.ClampDuration(duration)
	period = envelope.ClampDuration(period)

	gain, err := a.backend.NewAmplitude(0)
	if err != nil {
		return tone.Unavailable("amplitude", err)
	}
	v, err := a.backend.NewVoice(a.cfg.Waveform, gain)
	if err != nil {
		gain.Disconnect()
		return tone.Unavailable("voice", err)
	}
	v.SetFrequency(p.Frequency())
	v.Start(when)
	envelope.ExponentialSwell(when, duration, a.cfg.Peak).Apply(gain)
	next := when + period
	v.Stop(next)

	g := a.slots[p].group
	if g == nil {
		g = &DefaultGroups()[0]
	}
	task := &ambientNote{a: a, pitch: p, when: next, duration: g.duration(a.gen.Float64(), period), period: period}

	s := &a.slots[p]
	s.voice, s.gain, s.task = v, gain, task
	s.note = Note{Voice: p.String(), Frequency: p.Frequency(), When: when, Duration: duration, Period: period}
	debug.Log("note", "%s when=%.3f dur=%.3f period=%.3f", p, when, duration, period)
	a.pending = append(a.pending, s.note)

	v.OnEnded(task.fire)
	return nil
}

// releaseLocked drops p's voice: the completion hook is cleared before the
// voice and its gain are disconnected
func (a *Ambient) releaseLocked(p Pitch) {
	s := &a.slots[p]
	if s.voice != nil {
		s.voice.OnEnded(nil)
		s.voice.Disconnect()
		s.voice = nil
	}
	if s.gain != nil {
		s.gain.Disconnect()
		s.gain = nil
	}
	s.task = nil
}

// Stop releases every pitch. It is safe to call at any time, repeatedly.
func (a *Ambient) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *Ambient) stopLocked() {
	for p := Pitch(0); p < NumPitches; p++ {
		a.releaseLocked(p)
	}
	if a.playing {
		debug.Log("stop", "ambient stopped (seed %s)", a.seed)
	}
	a.playing = false
	a.pending = nil
}

// Seed returns the seed of the current or last performance
func (a *Ambient) Seed() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seed
}

// Playing reports whether a performance is running
func (a *Ambient) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playing
}

// Voices returns a snapshot of every pitch slot in pitch order
func (a *Ambient) Voices() []VoiceStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]VoiceStatus, 0, NumPitches)
	for p := Pitch(0); p < NumPitches; p++ {
		s := &a.slots[p]
		st := VoiceStatus{Name: p.String(), Frequency: p.Frequency()}
		if s.voice != nil {
			st.Active = true
			st.When = s.note.When
			st.Duration = s.note.Duration
			st.Period = s.note.Period
		}
		out = append(out, st)
	}
	return out
}

// Err returns the last failure raised while rescheduling from a completion
func (a *Ambient) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}
