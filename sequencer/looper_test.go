package sequencer

import (
	"errors"
	"math"
	"testing"

	"go-ambient/tone"
	"go-ambient/tone/tonetest"
)

// scriptedSource returns vals in order, cycling, reduced modulo n
type scriptedSource struct {
	vals []int
	i    int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)] % n
	s.i++
	return v
}

func lastVoice(t *testing.T, b *tonetest.Backend) *tonetest.Voice {
	t.Helper()
	if len(b.Voices) == 0 {
		t.Fatal("no voice created")
	}
	return b.Voices[len(b.Voices)-1]
}

func TestLooperExplicitPlay(t *testing.T) {
	b := tonetest.New()
	l := NewLooper(b, DefaultLooperConfig())

	allowed := map[float64]bool{0.125: true, 0.25: true, 0.5: true, 1: true}
	for i := 0; i < 50; i++ {
		if err := l.PlayAt(0, 220); err != nil {
			t.Fatal(err)
		}
		v := lastVoice(t, b)
		if v.Frequency != 220 || v.StartAt != 0 || !v.Started {
			t.Fatalf("voice not started at 0 with 220 Hz: %+v", v)
		}
		if v.Waveform != tone.Square {
			t.Errorf("waveform %s", v.Waveform)
		}
		if !allowed[v.StopAt] {
			t.Fatalf("stop time %v not in {0.25,0.5,1,2}*0.5", v.StopAt)
		}

		ramps := v.Out.Ramps
		if len(ramps) != 4 {
			t.Fatalf("expected 4 ramps, got %d", len(ramps))
		}
		if ramps[0].Time != 0 || ramps[0].Value != 0 {
			t.Errorf("fade-in start %+v", ramps[0])
		}
		if ramps[1].Time != 0.005 || ramps[1].Value != 0.1 {
			t.Errorf("fade-in end %+v", ramps[1])
		}
		if ramps[3].Time != v.StopAt || ramps[3].Value != 0 {
			t.Errorf("fade-out %+v does not land on stop %v", ramps[3], v.StopAt)
		}
		if !v.HasCallback() {
			t.Fatal("completion not registered")
		}
	}

	if live := b.Live(); len(live) != 1 {
		t.Fatalf("expected each play to supersede the last, %d voices live", len(live))
	}
}

func TestLooperSelfPerpetuates(t *testing.T) {
	b := tonetest.New()
	l := NewLooper(b, DefaultLooperConfig())
	l.SetSource(&scriptedSource{vals: []int{1, 2}}) // quarter notes, third scale degree

	if err := l.PlayAt(0, 220); err != nil {
		t.Fatal(err)
	}
	b.AdvanceTo(2)

	if len(b.Voices) != 4 {
		t.Fatalf("expected 4 notes by t=2, got %d", len(b.Voices))
	}
	for i := 1; i < len(b.Voices); i++ {
		prev, v := b.Voices[i-1], b.Voices[i]
		if math.Abs(v.StartAt-(prev.StopAt+0.005)) > 1e-12 {
			t.Errorf("note %d starts at %v, want %v", i, v.StartAt, prev.StopAt+0.005)
		}
		if math.Abs(v.StopAt-v.StartAt-0.5) > 1e-12 {
			t.Errorf("note %d lasts %v", i, v.StopAt-v.StartAt)
		}
		if v.Frequency != AMinor[2] {
			t.Errorf("note %d frequency %v", i, v.Frequency)
		}
		if !prev.Disconnected {
			t.Errorf("note %d was not released when superseded", i-1)
		}
	}
	if live := b.Live(); len(live) != 1 {
		t.Fatalf("%d voices live", len(live))
	}
}

func TestLooperRestOccupiesSlot(t *testing.T) {
	b := tonetest.New()
	l := NewLooper(b, DefaultLooperConfig())
	l.SetSource(&scriptedSource{vals: []int{3, len(AMinor) - 1}}) // sixteenths, then the rest

	if err := l.PlayAt(0, 220); err != nil {
		t.Fatal(err)
	}
	b.AdvanceTo(0.2)

	if len(b.Voices) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(b.Voices))
	}
	rest := b.Voices[1]
	if rest.Frequency != Rest {
		t.Fatalf("frequency %v, want rest", rest.Frequency)
	}
	if !rest.Started || !rest.Stopped || math.Abs(rest.StopAt-rest.StartAt-0.125) > 1e-12 {
		t.Fatalf("rest does not occupy a full slot: %+v", rest)
	}
	for i, r := range rest.Out.Ramps {
		if r.Value != 0 {
			t.Errorf("ramp %d targets %v during a rest", i, r.Value)
		}
	}
}

func TestLooperStop(t *testing.T) {
	b := tonetest.New()
	l := NewLooper(b, DefaultLooperConfig())

	l.Stop() // never started

	if err := l.Play(); err != nil {
		t.Fatal(err)
	}
	v := lastVoice(t, b)
	if v.Frequency != AMinor[0] {
		t.Errorf("default frequency %v", v.Frequency)
	}

	l.Stop()
	if v.HasCallback() {
		t.Fatal("completion hook still registered after Stop")
	}
	if !v.Disconnected {
		t.Fatal("voice not released")
	}
	if len(v.Out.Cancels) == 0 || v.Out.Cancels[len(v.Out.Cancels)-1] != 0 {
		t.Fatalf("pending envelope not cancelled: %v", v.Out.Cancels)
	}
	l.Stop()
	if l.Playing() {
		t.Fatal("still playing")
	}

	b.AdvanceTo(100)
	if len(b.Voices) != 1 {
		t.Fatalf("notes scheduled after Stop: %d", len(b.Voices))
	}
}

func TestLooperStaleCompletionDropped(t *testing.T) {
	b := tonetest.New()
	l := NewLooper(b, DefaultLooperConfig())
	if err := l.PlayAt(0, 220); err != nil {
		t.Fatal(err)
	}
	task := l.task
	l.Stop()
	task.fire()
	if len(b.Voices) != 1 {
		t.Fatalf("completion fired after Stop scheduled a note")
	}
}

func TestLooperCapabilityUnavailable(t *testing.T) {
	b := tonetest.New()
	b.VoiceErr = errors.New("no oscillators")
	l := NewLooper(b, DefaultLooperConfig())
	if err := l.Play(); !errors.Is(err, tone.ErrCapabilityUnavailable) {
		t.Fatalf("got %v", err)
	}

	b = tonetest.New()
	b.BrokenClock = true
	l = NewLooper(b, DefaultLooperConfig())
	if err := l.Play(); !errors.Is(err, tone.ErrCapabilityUnavailable) {
		t.Fatalf("got %v", err)
	}
}

func TestLooperHookMayStop(t *testing.T) {
	b := tonetest.New()
	l := NewLooper(b, DefaultLooperConfig())
	n := 0
	l.SetOnNote(func(Note) {
		n++
		if n == 3 {
			l.Stop()
		}
	})
	if err := l.Play(); err != nil {
		t.Fatal(err)
	}
	b.AdvanceTo(100)
	if l.Playing() || len(b.Live()) != 0 {
		t.Fatal("Stop from the note hook left the looper running")
	}
	if n != 3 {
		t.Fatalf("%d notes reported, want 3", n)
	}
}
