// Package midi plays tone voices on an external MIDI synth. Each amplitude
// owns a channel; notes are sent at their scheduled wall-clock time and the
// amplitude automation is streamed as expression (CC11).
package midi

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-ambient/debug"
	"go-ambient/envelope"
	"go-ambient/tone"
)

// Expression refresh rate
const expressionFPS = 50

var (
	errNoChannel    = errors.New("every MIDI channel is in use")
	errDisconnected = errors.New("amplitude is disconnected")
)

// Options configures a Backend
type Options struct {
	Channels  []uint8 // 1-16, handed out to amplitudes in order
	Velocity  uint8
	BendRange float64 // semitones
	FullScale float64 // gain sent as expression 127
}

// DefaultOptions uses every channel except the drum channel
func DefaultOptions() Options {
	return Options{
		Channels:  []uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 11, 12, 13, 14, 15, 16},
		Velocity:  100,
		BendRange: DefaultBendRange,
		FullScale: 0.1,
	}
}

type eventKind int

const (
	kindOn eventKind = iota
	kindOff
)

type scheduled struct {
	at   float64
	kind eventKind
	v    *voice
}

// Backend is a tone.Backend over a MIDI output. Its clock is wall time since
// creation.
type Backend struct {
	send  func(gomidi.Message) error
	clock func() time.Time
	t0    time.Time
	opts  Options

	mu     sync.Mutex
	free   []uint8 // 0-based channels not owned by an amplitude
	gains  []*amplitude
	queue  []scheduled // sorted by time, ties in insertion order
	voices map[*voice]struct{}
	prevCC map[uint8]uint8

	wake chan struct{}
}

// NewBackend creates a backend sending through send
func NewBackend(send func(gomidi.Message) error, opts Options) *Backend {
	return newBackend(send, opts, time.Now)
}

func newBackend(send func(gomidi.Message) error, opts Options, clock func() time.Time) *Backend {
	def := DefaultOptions()
	if len(opts.Channels) == 0 {
		opts.Channels = def.Channels
	}
	if opts.Velocity == 0 {
		opts.Velocity = def.Velocity
	}
	if !(opts.FullScale > 0) {
		opts.FullScale = def.FullScale
	}
	b := &Backend{
		send:   send,
		clock:  clock,
		t0:     clock(),
		opts:   opts,
		voices: make(map[*voice]struct{}),
		prevCC: make(map[uint8]uint8),
		wake:   make(chan struct{}, 1),
	}
	for _, ch := range opts.Channels {
		if ch >= 1 && ch <= 16 {
			b.free = append(b.free, ch-1)
		}
	}
	return b
}

func (b *Backend) Now() float64 {
	return b.clock().Sub(b.t0).Seconds()
}

func (b *Backend) NewAmplitude(initial float64) (tone.Amplitude, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.free) == 0 {
		return nil, tone.Unavailable("amplitude", errNoChannel)
	}
	ch := b.free[0]
	b.free = b.free[1:]
	a := &amplitude{b: b, ch: ch, tl: envelope.NewTimeline(initial)}
	b.gains = append(b.gains, a)
	debug.Log("backend", "channel %d allocated (%d free)", ch+1, len(b.free))
	return a, nil
}

func (b *Backend) NewVoice(w tone.Waveform, out tone.Amplitude) (tone.Voice, error) {
	amp, ok := out.(*amplitude)
	if !ok || amp.b != b {
		return nil, tone.Unavailable("voice", errors.New("amplitude belongs to another backend"))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if amp.released {
		return nil, tone.Unavailable("voice", errDisconnected)
	}
	v := &voice{b: b, amp: amp}
	b.voices[v] = struct{}{}
	return v, nil
}

// FreeChannels returns how many channels can still be allocated
func (b *Backend) FreeChannels() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.free)
}

// enqueueLocked inserts an event and wakes the dispatch loop
func (b *Backend) enqueueLocked(s scheduled) {
	i := sort.Search(len(b.queue), func(i int) bool { return b.queue[i].at > s.at })
	b.queue = append(b.queue, scheduled{})
	copy(b.queue[i+1:], b.queue[i:])
	b.queue[i] = s

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Run dispatches events at their times and streams expression until ctx is
// done, then silences every sounding note
func (b *Backend) Run(ctx context.Context) {
	go b.expressionLoop(ctx)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		b.mu.Lock()
		next, ok := math.Inf(1), len(b.queue) > 0
		if ok {
			next = b.queue[0].at
		}
		b.mu.Unlock()

		var timerC <-chan time.Time
		var timer *time.Timer
		if ok {
			wait := waitFor(next, b.Now())
			if wait <= 0 {
				b.dispatchDue(b.Now())
				continue
			}
			timer = time.NewTimer(wait)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			b.allNotesOff()
			return
		case <-b.wake:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
		b.dispatchDue(b.Now())
	}
}

// waitFor returns how long to sleep until next. Events queued in the past,
// including immediate releases at -Inf, are due at once.
func waitFor(next, now float64) time.Duration {
	d := next - now
	if !(d > 0) {
		return 0
	}
	if d >= float64(math.MaxInt64)/float64(time.Second) {
		return math.MaxInt64
	}
	return time.Duration(d * float64(time.Second))
}

// dispatchDue sends every event at or before now, then runs the completions
// of voices that ended
func (b *Backend) dispatchDue(now float64) {
	b.mu.Lock()
	var out []Event
	var ended []func()
	n := 0
	for n < len(b.queue) && b.queue[n].at <= now {
		s := b.queue[n]
		n++
		v := s.v
		switch s.kind {
		case kindOn:
			if v.disconnected {
				continue
			}
			if v.sounding {
				out = append(out, Event{Type: NoteOff, Channel: v.ch, Note: v.key})
				v.sounding = false
			}
			key, bend, ok := NoteForFrequency(v.freq, b.opts.BendRange)
			if !ok {
				continue // rests hold their time slot silently
			}
			v.key, v.ch, v.sounding = key, v.amp.ch, true
			out = append(out,
				Event{Type: PitchBend, Channel: v.ch, Bend: bend},
				Event{Type: NoteOn, Channel: v.ch, Note: key, Velocity: b.opts.Velocity},
			)
		case kindOff:
			if v.sounding {
				out = append(out, Event{Type: NoteOff, Channel: v.ch, Note: v.key})
				v.sounding = false
			}
			if v.disconnected || v.ended {
				continue
			}
			v.ended = true
			delete(b.voices, v)
			if v.onEnded != nil {
				ended = append(ended, v.onEnded)
				v.onEnded = nil
			}
		}
	}
	if n > 0 {
		b.queue = append(b.queue[:0], b.queue[n:]...)
	}
	b.mu.Unlock()

	b.sendAll(out)
	for _, fn := range ended {
		fn()
	}
}

func (b *Backend) expressionLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / expressionFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.flushExpression(b.Now())
		}
	}
}

// flushExpression sends CC11 only for channels whose value changed
func (b *Backend) flushExpression(now float64) {
	b.mu.Lock()
	var out []Event
	for _, a := range b.gains {
		a.tl.Compact(now)
		v := expressionValue(a.tl.Value(now), b.opts.FullScale)
		if prev, ok := b.prevCC[a.ch]; ok && prev == v {
			continue
		}
		b.prevCC[a.ch] = v
		out = append(out, Event{Type: CC, Channel: a.ch, Controller: Expression, Value: v})
	}
	b.mu.Unlock()

	if len(out) > 0 {
		debug.LogEvery(100, "dispatch", "expression batch=%d", len(out))
	}
	b.sendAll(out)
}

func (b *Backend) allNotesOff() {
	b.mu.Lock()
	var out []Event
	release := func(v *voice) {
		if v.sounding {
			out = append(out, Event{Type: NoteOff, Channel: v.ch, Note: v.key})
			v.sounding = false
		}
	}
	for v := range b.voices {
		release(v)
	}
	// disconnected voices still waiting for their release
	for _, s := range b.queue {
		release(s.v)
	}
	b.mu.Unlock()
	b.sendAll(out)
}

func (b *Backend) sendAll(events []Event) {
	for _, e := range events {
		if err := b.send(e.Message()); err != nil {
			debug.Log("dispatch", "send failed: ch=%d type=%#x: %v", e.Channel+1, e.Type, err)
			continue
		}
		if e.Type != CC {
			debug.Log("dispatch", "ch=%d type=%#x note=%d bend=%d", e.Channel+1, e.Type, e.Note, e.Bend)
		}
	}
}

type amplitude struct {
	b        *Backend
	ch       uint8
	tl       *envelope.Timeline
	released bool
}

func (a *amplitude) SetValueAt(value, t float64) {
	a.b.mu.Lock()
	a.tl.SetValueAt(value, t)
	a.b.mu.Unlock()
}

func (a *amplitude) LinearRampTo(value, t float64) {
	a.b.mu.Lock()
	a.tl.LinearRampTo(value, t)
	a.b.mu.Unlock()
}

func (a *amplitude) ExponentialApproach(target, start, timeConstant float64) {
	a.b.mu.Lock()
	a.tl.ExponentialApproach(target, start, timeConstant)
	a.b.mu.Unlock()
}

func (a *amplitude) CancelScheduled(t float64) {
	a.b.mu.Lock()
	a.tl.CancelScheduled(t)
	a.b.mu.Unlock()
}

// Disconnect returns the channel to the pool
func (a *amplitude) Disconnect() {
	b := a.b
	b.mu.Lock()
	defer b.mu.Unlock()
	if a.released {
		return
	}
	a.released = true
	for i, g := range b.gains {
		if g == a {
			b.gains = append(b.gains[:i], b.gains[i+1:]...)
			break
		}
	}
	delete(b.prevCC, a.ch)
	b.free = append(b.free, a.ch)
}

type voice struct {
	b   *Backend
	amp *amplitude

	freq     float64
	key      uint8
	ch       uint8
	sounding bool

	ended        bool
	disconnected bool
	onEnded      func()
}

func (v *voice) SetFrequency(hz float64) {
	v.b.mu.Lock()
	v.freq = hz
	v.b.mu.Unlock()
}

func (v *voice) Start(t float64) {
	v.b.mu.Lock()
	v.b.enqueueLocked(scheduled{at: t, kind: kindOn, v: v})
	v.b.mu.Unlock()
}

func (v *voice) Stop(t float64) {
	v.b.mu.Lock()
	v.b.enqueueLocked(scheduled{at: t, kind: kindOff, v: v})
	v.b.mu.Unlock()
}

func (v *voice) OnEnded(fn func()) {
	v.b.mu.Lock()
	v.onEnded = fn
	v.b.mu.Unlock()
}

// Disconnect drops the voice's pending events and releases its key at once
func (v *voice) Disconnect() {
	b := v.b
	b.mu.Lock()
	defer b.mu.Unlock()
	if v.disconnected {
		return
	}
	v.disconnected = true
	v.onEnded = nil
	delete(b.voices, v)

	kept := b.queue[:0]
	for _, s := range b.queue {
		if s.v != v {
			kept = append(kept, s)
		}
	}
	clear(b.queue[len(kept):])
	b.queue = kept
	if v.sounding {
		b.enqueueLocked(scheduled{at: math.Inf(-1), kind: kindOff, v: v})
	}
}
