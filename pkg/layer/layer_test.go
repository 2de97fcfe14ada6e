package layer

import (
	"image/color"
	"testing"
)

func TestFitFontSizeKeepsFittingSize(t *testing.T) {
	// Width scales linearly with size: 10px per size unit.
	measure := func(size float64) float64 { return size * 10 }

	// 40 units * 10 = 400 > 300, shrink to 30.
	if got := FitFontSize(measure, 40, 300); got != 30 {
		t.Errorf("FitFontSize = %v, want 30", got)
	}

	// Already fits: unchanged.
	if got := FitFontSize(measure, 20, 300); got != 20 {
		t.Errorf("FitFontSize = %v, want 20", got)
	}
}

func TestFitFontSizeFloorsAtOne(t *testing.T) {
	// Nothing ever fits; the loop must still terminate at the 1px floor.
	measure := func(size float64) float64 { return 1e9 }
	if got := FitFontSize(measure, 50, 10); got != 1 {
		t.Errorf("FitFontSize = %v, want floor of 1", got)
	}
	if got := FitFontSize(measure, 0, 10); got != 1 {
		t.Errorf("FitFontSize with zero initial = %v, want 1", got)
	}
}

func TestPixelDim(t *testing.T) {
	tests := []struct {
		v    float64
		even bool
		want int
	}{
		{100.9, false, 100},
		{0, false, 1},
		{-3, false, 1},
		{101, true, 102},
		{102, true, 102},
		{0.4, true, 2},
	}
	for _, tt := range tests {
		if got := PixelDim(tt.v, tt.even); got != tt.want {
			t.Errorf("PixelDim(%v, %v) = %d, want %d", tt.v, tt.even, got, tt.want)
		}
	}
}

func TestParseColorNamed(t *testing.T) {
	c, err := ParseColor("red")
	if err != nil {
		t.Fatalf("ParseColor error: %v", err)
	}
	r, g, b, _ := c.RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("red = %v", c)
	}

	if _, err := ParseColor("GREY"); err != nil {
		t.Errorf("named colors should be case-insensitive: %v", err)
	}
}

func TestParseColorHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#ff0000", color.RGBA{255, 0, 0, 255}},
		{"#0f0", color.RGBA{0, 255, 0, 255}},
		{"#00000080", color.RGBA{0, 0, 0, 128}},
	}
	for _, tt := range tests {
		c, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q) error: %v", tt.in, err)
			continue
		}
		got, ok := c.(color.RGBA)
		if !ok {
			r, g, b, a := c.RGBA()
			got = color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseColorInvalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#zzzzzz", "chartreuse-ish"} {
		if _, err := ParseColor(in); err == nil {
			t.Errorf("ParseColor(%q) should fail", in)
		}
	}
}

func TestParseColorTransparent(t *testing.T) {
	c, err := ParseColor("transparent")
	if err != nil {
		t.Fatalf("ParseColor error: %v", err)
	}
	_, _, _, a := c.RGBA()
	if a != 0 {
		t.Errorf("transparent alpha = %d, want 0", a)
	}
}
