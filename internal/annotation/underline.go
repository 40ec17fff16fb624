package annotation

import (
	"encoding/json"
	"fmt"
	"sync"
)

// UnderlineStyle is the line style of an underline decoration
type UnderlineStyle string

const (
	StyleSolid  UnderlineStyle = "solid"
	StyleDashed UnderlineStyle = "dashed"
	StyleDotted UnderlineStyle = "dotted"
)

const (
	// UnderlineOptionsKey is the storage key of the persisted options
	UnderlineOptionsKey = "underlineOptions"

	MinThickness = 1
	MaxThickness = 5
)

// ParseUnderlineStyle converts a style name into an UnderlineStyle
func ParseUnderlineStyle(s string) (UnderlineStyle, error) {
	switch UnderlineStyle(s) {
	case StyleSolid, StyleDashed, StyleDotted:
		return UnderlineStyle(s), nil
	}
	return "", fmt.Errorf("invalid underline style %q (must be one of: solid, dashed, dotted)", s)
}

// UnderlineOptions configures decorations drawn under hidden annotations
type UnderlineOptions struct {
	Style     UnderlineStyle `json:"style"`
	Thickness int            `json:"thickness"`
	Color     string         `json:"color"`
}

// DefaultUnderlineOptions returns a thin solid black line
func DefaultUnderlineOptions() UnderlineOptions {
	return UnderlineOptions{
		Style:     StyleSolid,
		Thickness: 1,
		Color:     "#000000",
	}
}

// Validate checks the options are drawable
func (o UnderlineOptions) Validate() error {
	if _, err := ParseUnderlineStyle(string(o.Style)); err != nil {
		return err
	}
	if o.Thickness < MinThickness || o.Thickness > MaxThickness {
		return fmt.Errorf("underline thickness must be between %d and %d, got %d",
			MinThickness, MaxThickness, o.Thickness)
	}
	if _, err := ParseColorValue(o.Color); err != nil {
		return fmt.Errorf("invalid underline color: %w", err)
	}
	return nil
}

// UnderlineOptionsPatch is a partial update; nil fields keep their current value
type UnderlineOptionsPatch struct {
	Style     *UnderlineStyle `json:"style,omitempty"`
	Thickness *int            `json:"thickness,omitempty"`
	Color     *string         `json:"color,omitempty"`
}

// Apply merges p over o
func (p UnderlineOptionsPatch) Apply(o UnderlineOptions) UnderlineOptions {
	if p.Style != nil {
		o.Style = *p.Style
	}
	if p.Thickness != nil {
		o.Thickness = *p.Thickness
	}
	if p.Color != nil {
		o.Color = *p.Color
	}
	return o
}

// KeyValueStore is durable string storage that survives sessions
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// LoadUnderlineOptions reads persisted options merged over the defaults. Stored
// values that cannot be decoded or are out of range are ignored.
func LoadUnderlineOptions(kv KeyValueStore) UnderlineOptions {
	opts := DefaultUnderlineOptions()
	if kv == nil {
		return opts
	}

	raw, ok := kv.Get(UnderlineOptionsKey)
	if !ok {
		return opts
	}

	var patch UnderlineOptionsPatch
	if err := json.Unmarshal([]byte(raw), &patch); err != nil {
		return opts
	}

	merged := patch.Apply(opts)
	if merged.Validate() != nil {
		return opts
	}
	return merged
}

// SaveUnderlineOptions persists opts as a single JSON object
func SaveUnderlineOptions(kv KeyValueStore, opts UnderlineOptions) error {
	if kv == nil {
		return nil
	}

	data, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to encode underline options: %w", err)
	}
	return kv.Set(UnderlineOptionsKey, string(data))
}

// Decoration is an underline drawn beneath a hidden annotation
type Decoration struct {
	AnnotationID string         `json:"annotation_id"`
	Left         float64        `json:"left"`
	Top          float64        `json:"top"`
	Width        float64        `json:"width"`
	Height       float64        `json:"height"`
	Style        UnderlineStyle `json:"style"`
	Color        string         `json:"color"`
}

// Overlay keeps the decorations of the current page
type Overlay struct {
	mu          sync.RWMutex
	options     UnderlineOptions
	decorations []Decoration
}

// NewOverlay creates an overlay drawing with opts
func NewOverlay(opts UnderlineOptions) *Overlay {
	return &Overlay{options: opts}
}

// Options returns the current underline options
func (o *Overlay) Options() UnderlineOptions {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.options
}

// SetOptions replaces the underline options; decorations are redrawn on the next Recompute
func (o *Overlay) SetOptions(opts UnderlineOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	o.options = opts
	o.mu.Unlock()
	return nil
}

// Recompute discards every previous decoration and draws one for each
// annotation whose colour is hidden. Annotations of visible colours are never decorated.
func (o *Overlay) Recompute(annotations []Annotation, hidden map[Color]bool) []Decoration {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.decorations = o.decorations[:0]
	thickness := float64(o.options.Thickness)
	for _, a := range annotations {
		if !hidden[a.Color] {
			continue
		}
		o.decorations = append(o.decorations, Decoration{
			AnnotationID: a.ID,
			Left:         a.X,
			Top:          a.Y + a.Height - thickness,
			Width:        a.Width,
			Height:       thickness,
			Style:        o.options.Style,
			Color:        o.options.Color,
		})
	}

	return o.copyLocked()
}

// Clear removes every decoration
func (o *Overlay) Clear() {
	o.mu.Lock()
	o.decorations = nil
	o.mu.Unlock()
}

// Decorations returns a copy of the current decorations
func (o *Overlay) Decorations() []Decoration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.copyLocked()
}

func (o *Overlay) copyLocked() []Decoration {
	out := make([]Decoration, len(o.decorations))
	copy(out, o.decorations)
	return out
}
