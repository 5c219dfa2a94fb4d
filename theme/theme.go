package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Solid rune // ■ voice sounding
	Empty rune // □ voice idle

	BarFull  rune // █ elapsed part of a loop
	BarEmpty rune // ░ remaining part of a loop

	Playing rune // ▶
	Stopped rune // ■
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Solid: '■',
			Empty: '□',

			BarFull:  '█',
			BarEmpty: '░',

			Playing: '▶',
			Stopped: '■',
		},
	}
}

// Default returns the theme over the built-in palette
func Default() *Theme {
	return New(DefaultPalette())
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleWarning = 0.8
	RoleSuccess = 1.0

	// voices are spread over the bright end so none disappears into the background
	voiceLow  = 0.3
	voiceHigh = 1.0
)

func (t *Theme) BG() lipgloss.Color      { return t.Color(RoleBG) }
func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// RGB returns raw RGB for any normalized value
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}

// Voice returns the color of voice i out of n, low pitches darkest
func (t *Theme) Voice(i, n int) RGB {
	if n <= 1 {
		return t.Palette.Lookup(voiceLow)
	}
	return t.Palette.Lookup(voiceLow + (voiceHigh-voiceLow)*float64(i)/float64(n-1))
}

// Fade moves c toward the background. level 1 leaves c unchanged, level 0
// returns the background color.
func (t *Theme) Fade(c RGB, level float64) RGB {
	level = min(max(level, 0), 1)
	bg := t.Palette.Lookup(RoleBG)
	return fromColorful(bg.colorful().BlendLab(c.colorful(), level))
}
