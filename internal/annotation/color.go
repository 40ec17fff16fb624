package annotation

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/colornames"
)

// Color is the category of a highlight. Visibility is tracked per category.
type Color string

const (
	Red    Color = "red"
	Yellow Color = "yellow"
	Blue   Color = "blue"
	Custom Color = "custom"
)

// DefaultCustomColor is the fill used for the custom category until the user picks one
const DefaultCustomColor = "#4CAF50"

// Colors returns all categories in display order
func Colors() []Color {
	return []Color{Red, Yellow, Blue, Custom}
}

// Valid reports whether c is one of the known categories
func (c Color) Valid() bool {
	switch c {
	case Red, Yellow, Blue, Custom:
		return true
	}
	return false
}

// DisplayName returns the ordinal label used on the toolbar buttons
func (c Color) DisplayName() string {
	switch c {
	case Red:
		return "one"
	case Yellow:
		return "two"
	case Blue:
		return "three"
	case Custom:
		return "four"
	default:
		return ""
	}
}

// ParseColor converts a category name into a Color
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown annotation color %q (must be one of: red, yellow, blue, custom)", s)
	}
	return c, nil
}

// ParseColorValue parses a CSS-like colour value: #rgb, #rrggbb, #rrggbbaa or a
// named colour such as "black".
func ParseColorValue(s string) (color.RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return color.RGBA{}, fmt.Errorf("color value cannot be empty")
	}

	if named, ok := colornames.Map[v]; ok {
		return named, nil
	}

	if !strings.HasPrefix(v, "#") {
		return color.RGBA{}, fmt.Errorf("invalid color value: %s", s)
	}

	hex := v[1:]
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "ff"
	case 6:
		hex += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("invalid color value: %s", s)
	}

	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color value %s: %w", s, err)
	}

	return color.RGBA{
		R: uint8(n >> 24),
		G: uint8(n >> 16),
		B: uint8(n >> 8),
		A: uint8(n),
	}, nil
}

// FormatColorValue renders c as #rrggbb, or #rrggbbaa when not opaque
func FormatColorValue(c color.RGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Palette maps categories to fill colours
type Palette struct {
	mu    sync.RWMutex
	fills map[Color]color.RGBA
}

// NewPalette creates the default palette; customValue seeds the custom category
func NewPalette(customValue string) (*Palette, error) {
	custom, err := ParseColorValue(customValue)
	if err != nil {
		return nil, err
	}

	return &Palette{
		fills: map[Color]color.RGBA{
			Red:    {R: 0xff, G: 0x00, B: 0x00, A: 0x4d},
			Yellow: {R: 0xff, G: 0xeb, B: 0x3b, A: 0x66},
			Blue:   {R: 0x21, G: 0x96, B: 0xf3, A: 0x4d},
			Custom: custom,
		},
	}, nil
}

// Fill returns the fill colour for c
func (p *Palette) Fill(c Color) color.RGBA {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fills[c]
}

// SetCustom replaces the custom category fill
func (p *Palette) SetCustom(value string) error {
	fill, err := ParseColorValue(value)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.fills[Custom] = fill
	p.mu.Unlock()
	return nil
}
