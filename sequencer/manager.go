package sequencer

import (
	"fmt"
	"sync"

	"go-ambient/debug"
	"go-ambient/tone"
)

// Mode selects which player the manager drives
type Mode string

const (
	ModeAmbient Mode = "ambient"
	ModeLooper  Mode = "looper"
)

// ParseMode maps a config string to a Mode. Empty means ModeAmbient.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAmbient:
		return ModeAmbient, nil
	case ModeLooper:
		return ModeLooper, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Status is a snapshot for the UI
type Status struct {
	Mode    Mode
	Playing bool
	Seed    string
	Now     float64
	Voices  []VoiceStatus
	Err     error
}

// Manager owns both players over one backend and routes play/stop to the
// selected one
type Manager struct {
	backend tone.Backend
	ambient *Ambient
	looper  *Looper

	mu       sync.RWMutex
	mode     Mode
	lastNote Note
	notes    uint64

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager wires the players' note hooks and returns an idle manager
func NewManager(backend tone.Backend, ambient *Ambient, looper *Looper) *Manager {
	m := &Manager{
		backend:    backend,
		ambient:    ambient,
		looper:     looper,
		mode:       ModeAmbient,
		UpdateChan: make(chan struct{}, 1),
	}
	ambient.SetOnNote(m.onNote)
	looper.SetOnNote(m.onNote)
	return m
}

// onNote runs on whichever goroutine scheduled the note, so it only records
// and signals
func (m *Manager) onNote(n Note) {
	m.mu.Lock()
	m.lastNote = n
	m.notes++
	m.mu.Unlock()
	m.notifyUpdate()
}

// Play starts the selected player. The seed only applies to ambient mode.
func (m *Manager) Play(seed string) error {
	mode := m.Mode()
	var err error
	switch mode {
	case ModeLooper:
		err = m.looper.Play()
	default:
		err = m.ambient.Play(seed)
	}
	if err != nil {
		debug.Log("play", "%s failed: %v", mode, err)
		return err
	}
	debug.Log("play", "%s started", mode)
	m.notifyUpdate()
	return nil
}

// Stop silences both players
func (m *Manager) Stop() {
	m.ambient.Stop()
	m.looper.Stop()
	m.notifyUpdate()
}

// Toggle stops when playing, otherwise plays with seed
func (m *Manager) Toggle(seed string) error {
	if m.Playing() {
		m.Stop()
		return nil
	}
	return m.Play(seed)
}

// SetMode switches players. The running one is stopped.
func (m *Manager) SetMode(mode Mode) {
	m.mu.Lock()
	if m.mode == mode {
		m.mu.Unlock()
		return
	}
	m.mode = mode
	m.mu.Unlock()

	m.Stop()
	debug.Log("mode", "switched to %s", mode)
}

// Mode returns the selected mode
func (m *Manager) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// Playing reports whether the selected player is running
func (m *Manager) Playing() bool {
	if m.Mode() == ModeLooper {
		return m.looper.Playing()
	}
	return m.ambient.Playing()
}

// LastNote returns the most recent note and how many were scheduled in total
func (m *Manager) LastNote() (Note, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastNote, m.notes
}

// Status returns the current state of the selected player
func (m *Manager) Status() Status {
	mode := m.Mode()
	st := Status{Mode: mode, Now: m.backend.Now()}
	switch mode {
	case ModeLooper:
		st.Playing = m.looper.Playing()
		st.Voices = m.looper.Voices()
		st.Err = m.looper.Err()
	default:
		st.Playing = m.ambient.Playing()
		st.Seed = m.ambient.Seed()
		st.Voices = m.ambient.Voices()
		st.Err = m.ambient.Err()
	}
	return st
}

// notifyUpdate wakes the TUI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}
