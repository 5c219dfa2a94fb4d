package synth

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"go-ambient/debug"
	"go-ambient/tone"
)

// Output streams an Engine to the sound card. Read runs on the audio thread,
// so voice completions are queued and delivered by Run.
type Output struct {
	engine *Engine
	ctx    *oto.Context
	player *oto.Player
	buf    []float32

	mu      sync.Mutex // guards pending and the player
	pending []func()
	wake    chan struct{}
	started bool
}

// NewOutput opens a mono float32 audio context at the engine's sample rate
func NewOutput(e *Engine, bufferSize time.Duration) (*Output, error) {
	op := &oto.NewContextOptions{
		SampleRate:   e.SampleRate(),
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, tone.Unavailable("output", err)
	}
	<-ready

	o := newOutput(e)
	o.ctx = ctx
	o.player = ctx.NewPlayer(o)
	debug.Log("backend", "oto output at %d Hz, buffer %v", e.SampleRate(), bufferSize)
	return o, nil
}

func newOutput(e *Engine) *Output {
	return &Output{
		engine: e,
		buf:    make([]float32, 1024),
		wake:   make(chan struct{}, 1),
	}
}

// Read renders little-endian float32 samples into p
func (o *Output) Read(p []byte) (int, error) {
	n := len(p) / 4
	if len(o.buf) < n {
		o.buf = make([]float32, n)
	}
	samples := o.buf[:n]
	ended := o.engine.render(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}

	if len(ended) > 0 {
		o.mu.Lock()
		o.pending = append(o.pending, ended...)
		o.mu.Unlock()
		select {
		case o.wake <- struct{}{}:
		default:
		}
	}
	return n * 4, nil
}

// Run delivers voice completions until ctx is done
func (o *Output) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.wake:
			o.mu.Lock()
			fns := o.pending
			o.pending = nil
			o.mu.Unlock()
			for _, fn := range fns {
				fn()
			}
		}
	}
}

// Start begins playback
func (o *Output) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started && o.player != nil {
		o.player.Play()
		o.started = true
	}
}

// Close stops playback
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	o.started = false
	return err
}
