package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPalette(t *testing.T) {
	p := DefaultPalette()
	if p.Name != "plasma" || len(p.Colors) != 11 {
		t.Fatalf("palette %q with %d colors", p.Name, len(p.Colors))
	}
	if got := p.Lookup(0); got != (RGB{13, 8, 135}) {
		t.Errorf("Lookup(0) = %v", got)
	}
	if got := p.Lookup(1); got != (RGB{240, 249, 33}) {
		t.Errorf("Lookup(1) = %v", got)
	}
	if got := p.Lookup(0.05); got == p.Colors[0] || got == p.Colors[1] {
		t.Errorf("Lookup(0.05) = %v, expected a blend", got)
	}
	if got := p.Index(99); got != p.Colors[10] {
		t.Errorf("Index(99) = %v", got)
	}
}

func TestParseGPL(t *testing.T) {
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\nName: empty\n"), "empty"); err == nil {
		t.Fatal("expected an error for a palette without colors")
	}

	path := filepath.Join(t.TempDir(), "two.gpl")
	os.WriteFile(path, []byte("GIMP Palette\nName: two\n# comment\n0 0 0 black\n255 255 255 white\n"), 0644)
	p, err := LoadOrDefault(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "two" || len(p.Colors) != 2 {
		t.Fatalf("got %+v", p)
	}

	p, err = LoadOrDefault("")
	if err != nil || p.Name != "plasma" {
		t.Fatalf("empty path gave %v, %v", p, err)
	}
}

func TestThemeColors(t *testing.T) {
	th := Default()
	if th.BG() != "#0d0887" {
		t.Errorf("BG = %v", th.BG())
	}
	if th.Success() != "#f0f921" {
		t.Errorf("Success = %v", th.Success())
	}
}

func TestLookupBlendsBetweenStops(t *testing.T) {
	p := &Palette{Name: "bw", Colors: []RGB{{0, 0, 0}, {255, 255, 255}}}
	mid := p.Lookup(0.5)
	if !closeRGB(mid, RGB{mid[0], mid[0], mid[0]}) {
		t.Fatalf("grey blend drifted off the grey axis: %v", mid)
	}
	if mid[0] < 100 || mid[0] > 140 {
		t.Errorf("Lab midpoint of black and white = %v", mid)
	}
	if got := p.Lookup(0.25); got[0] >= mid[0] {
		t.Errorf("Lookup(0.25) = %v not darker than %v", got, mid)
	}
}

func TestVoiceAndFade(t *testing.T) {
	th := Default()
	if th.Voice(0, 1) != th.RGB(voiceLow) {
		t.Errorf("single voice = %v", th.Voice(0, 1))
	}
	if !closeRGB(th.Voice(9, 10), th.Palette.Lookup(1)) {
		t.Errorf("last voice = %v", th.Voice(9, 10))
	}
	c := th.Voice(3, 10)
	if !closeRGB(th.Fade(c, 1), c) {
		t.Errorf("Fade(1) changed %v to %v", c, th.Fade(c, 1))
	}
	if got := th.Fade(c, 0); !closeRGB(got, th.Palette.Colors[0]) {
		t.Errorf("Fade(0) = %v", got)
	}
	if got := th.Fade(c, 2); !closeRGB(got, c) {
		t.Errorf("Fade clamps level, got %v", got)
	}
	if (RGB{13, 8, 135}).Hex() != "#0d0887" {
		t.Errorf("Hex = %s", RGB{13, 8, 135}.Hex())
	}
}

// closeRGB allows one step of rounding per channel after a Lab round trip
func closeRGB(a, b RGB) bool {
	for i := range a {
		if d := int(a[i]) - int(b[i]); d < -1 || d > 1 {
			return false
		}
	}
	return true
}
