package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		now, start, length, want float64
	}{
		{0, 1, 10, 0},
		{6, 1, 10, 0.5},
		{30, 1, 10, 1},
		{5, 1, 0, 0},
	}
	for _, tt := range tests {
		if got := Progress(tt.now, tt.start, tt.length); got != tt.want {
			t.Errorf("Progress(%v, %v, %v) = %v, want %v", tt.now, tt.start, tt.length, got, tt.want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	bar := RenderBar(0.5, 10, '#', '.', [3]uint8{255, 255, 255})
	if w := lipgloss.Width(bar); w != 10 {
		t.Fatalf("width %d", w)
	}
	if !strings.Contains(bar, "#####.....") {
		t.Errorf("bar %q", bar)
	}
	if RenderBar(1, 0, '#', '.', [3]uint8{}) != "" {
		t.Error("zero width bar not empty")
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{
		Title: "Playback",
		Keys:  []KeyBinding{{"p", "play / stop"}},
	}})
	if out != "Playback\n  p            play / stop" {
		t.Errorf("got %q", out)
	}
}
