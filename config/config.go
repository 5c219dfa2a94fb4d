package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go-ambient/debug"
)

// Backend selects where voices are played
type Backend string

const (
	BackendSynth Backend = "synth"
	BackendMIDI  Backend = "midi"
)

// Tempo limits for the looper
const (
	MinTempo = 20
	MaxTempo = 300
)

// OutputConfig selects and tunes the tone backend
type OutputConfig struct {
	Backend    Backend `json:"backend,omitempty"`
	SampleRate int     `json:"sampleRate,omitempty"`
	BufferMs   int     `json:"bufferMs,omitempty"`
	PortName   string  `json:"portName,omitempty"`
	Channels   []int   `json:"channels,omitempty"` // MIDI channels 1-16 used for voices
}

// AmbientConfig tunes the ambient player
type AmbientConfig struct {
	PeakGain float64 `json:"peakGain,omitempty"`
	Waveform string  `json:"waveform,omitempty"`
}

// LooperConfig tunes the looper
type LooperConfig struct {
	PeakGain float64 `json:"peakGain,omitempty"`
	Waveform string  `json:"waveform,omitempty"`
	Tempo    int     `json:"tempo,omitempty"`
}

// GeneratorConfig selects the random step
type GeneratorConfig struct {
	Variant string `json:"variant,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette  string `json:"palette,omitempty"` // .gpl file; empty uses the built-in one
	LastMode string `json:"lastMode,omitempty"`
	LastSeed string `json:"lastSeed,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Output    OutputConfig    `json:"output,omitempty"`
	Ambient   AmbientConfig   `json:"ambient,omitempty"`
	Looper    LooperConfig    `json:"looper,omitempty"`
	Generator GeneratorConfig `json:"generator,omitempty"`
	UI        UIConfig        `json:"ui,omitempty"`
	Debug     bool            `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Backend:    BackendSynth,
			SampleRate: 48000,
			BufferMs:   50,
			Channels:   []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 11, 12, 13, 14, 15, 16},
		},
		Ambient: AmbientConfig{
			PeakGain: 0.1,
			Waveform: "square",
		},
		Looper: LooperConfig{
			PeakGain: 0.1,
			Waveform: "square",
			Tempo:    120,
		},
		Generator: GeneratorConfig{
			Variant: "lehmer",
		},
		UI: UIConfig{
			LastMode: "ambient",
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-ambient"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found. Fields
// missing from the file keep their defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	debug.Log("config", "loaded %s (backend=%s)", path, cfg.Output.Backend)
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Normalize clamps out-of-range values back into range
func (c *Config) Normalize() {
	def := DefaultConfig()
	switch c.Output.Backend {
	case BackendSynth, BackendMIDI:
	default:
		c.Output.Backend = def.Output.Backend
	}
	if c.Output.SampleRate <= 0 {
		c.Output.SampleRate = def.Output.SampleRate
	}
	if c.Output.BufferMs <= 0 {
		c.Output.BufferMs = def.Output.BufferMs
	}
	channels := c.Output.Channels[:0]
	for _, ch := range c.Output.Channels {
		if ch >= 1 && ch <= 16 {
			channels = append(channels, ch)
		}
	}
	c.Output.Channels = channels
	if len(c.Output.Channels) == 0 {
		c.Output.Channels = def.Output.Channels
	}
	if !(c.Ambient.PeakGain > 0) || c.Ambient.PeakGain > 1 {
		c.Ambient.PeakGain = def.Ambient.PeakGain
	}
	if !(c.Looper.PeakGain > 0) || c.Looper.PeakGain > 1 {
		c.Looper.PeakGain = def.Looper.PeakGain
	}
	c.Looper.Tempo = ClampTempo(c.Looper.Tempo)
}

// ClampTempo keeps bpm within MinTempo..MaxTempo
func ClampTempo(bpm int) int {
	if bpm < MinTempo {
		return MinTempo
	}
	if bpm > MaxTempo {
		return MaxTempo
	}
	return bpm
}
