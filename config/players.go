package config

import (
	"fmt"

	"go-ambient/generator"
	"go-ambient/sequencer"
	"go-ambient/tone"
)

// AmbientPlayer returns the ambient player settings
func (c *Config) AmbientPlayer() (sequencer.AmbientConfig, error) {
	cfg := sequencer.DefaultAmbientConfig()
	w, err := tone.ParseWaveform(c.Ambient.Waveform)
	if err != nil {
		return cfg, fmt.Errorf("ambient: %w", err)
	}
	v, err := generator.ParseVariant(c.Generator.Variant)
	if err != nil {
		return cfg, err
	}
	cfg.Waveform = w
	cfg.Variant = v
	if c.Ambient.PeakGain > 0 {
		cfg.Peak = c.Ambient.PeakGain
	}
	return cfg, nil
}

// LooperPlayer returns the looper settings
func (c *Config) LooperPlayer() (sequencer.LooperConfig, error) {
	cfg := sequencer.DefaultLooperConfig()
	w, err := tone.ParseWaveform(c.Looper.Waveform)
	if err != nil {
		return cfg, fmt.Errorf("looper: %w", err)
	}
	cfg.Waveform = w
	if c.Looper.PeakGain > 0 {
		cfg.Peak = c.Looper.PeakGain
	}
	if c.Looper.Tempo != 0 {
		cfg.Tempo = float64(ClampTempo(c.Looper.Tempo))
	}
	return cfg, nil
}

// MIDIChannels returns the configured voice channels
func (c *Config) MIDIChannels() []uint8 {
	var out []uint8
	for _, ch := range c.Output.Channels {
		if ch >= 1 && ch <= 16 {
			out = append(out, uint8(ch))
		}
	}
	return out
}
