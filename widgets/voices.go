package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-ambient/theme"
)

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8, sym rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.RGB(color).Hex()))
	return style.Render(string(sym))
}

// RenderPadRow renders a row of colored pads with spacing
func RenderPadRow(colors [][3]uint8, syms []rune) string {
	var out strings.Builder
	for i, c := range colors {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderPad(c, syms[i]))
	}
	return out.String()
}

// Progress returns how far now is through the span starting at start, in
// [0, 1]
func Progress(now, start, length float64) float64 {
	if !(length > 0) || now <= start {
		return 0
	}
	return math.Min(1, (now-start)/length)
}

// RenderBar renders width cells with frac of them filled
func RenderBar(frac float64, width int, full, empty rune, color [3]uint8) string {
	if width <= 0 {
		return ""
	}
	n := int(math.Round(math.Max(0, math.Min(1, frac)) * float64(width)))
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.RGB(color).Hex()))
	return style.Render(strings.Repeat(string(full), n) + strings.Repeat(string(empty), width-n))
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
