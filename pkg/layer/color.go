package layer

import (
	"fmt"
	"image/color"
	"strings"
)

// namedColors covers the CSS color names region editors actually emit.
// Anything else must be a hex value.
var namedColors = map[string]color.RGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"orange":      {255, 165, 0, 255},
	"purple":      {128, 0, 128, 255},
	"pink":        {255, 192, 203, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor parses a CSS-style color value: a named color or a hex value
// in #RGB, #RRGGBB or #RRGGBBAA form.
func ParseColor(s string) (color.Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[v]; ok {
		return c, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHex(v)
	}
	return nil, fmt.Errorf("unsupported color %q", s)
}

func parseHex(v string) (color.Color, error) {
	hex := v[1:]
	var r, g, b, a uint8
	a = 255
	switch len(hex) {
	case 3:
		if _, err := fmt.Sscanf(hex, "%1x%1x%1x", &r, &g, &b); err != nil {
			return nil, fmt.Errorf("invalid hex color %q", v)
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
			return nil, fmt.Errorf("invalid hex color %q", v)
		}
	case 8:
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
			return nil, fmt.Errorf("invalid hex color %q", v)
		}
	default:
		return nil, fmt.Errorf("invalid hex color %q", v)
	}
	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}
