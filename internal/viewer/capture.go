package viewer

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-pdf-annotator/internal/annotation"
)

// Mode is the capture mode of the text layer
type Mode int

const (
	ModeView Mode = iota
	ModePaint
	ModeErase
)

// EraserTool is the toolbar name of the eraser
const EraserTool = "eraser"

func (m Mode) String() string {
	switch m {
	case ModePaint:
		return "paint"
	case ModeErase:
		return "erase"
	default:
		return "view"
	}
}

// Selection is the host's current text selection
type Selection interface {
	// IsCollapsed reports whether the selection is a caret with no extent
	IsCollapsed() bool
	// Text returns the selected text
	Text() string
	// ClientRects returns one rectangle per visual line fragment, in client space
	ClientRects() []annotation.Rect
	// Clear removes the native selection
	Clear()
}

// StaticSelection is a Selection built from plain values, e.g. decoded from a tool call
type StaticSelection struct {
	Collapsed bool
	Content   string
	Rects     []annotation.Rect
	cleared   bool
}

func (s *StaticSelection) IsCollapsed() bool              { return s.Collapsed }
func (s *StaticSelection) Text() string                   { return s.Content }
func (s *StaticSelection) ClientRects() []annotation.Rect { return s.Rects }
func (s *StaticSelection) Clear()                         { s.cleared = true }

// Cleared reports whether Clear was called
func (s *StaticSelection) Cleared() bool { return s.cleared }

// CaptureResult reports what a completed selection did
type CaptureResult struct {
	Mode      Mode     `json:"-"`
	Page      int      `json:"page"`
	Created   []string `json:"created,omitempty"`
	Erased    int      `json:"erased"`
	Discarded bool     `json:"discarded"`
}

// Capture turns completed selections into annotations or erasures
type Capture struct {
	store *annotation.Store
	mode  Mode
	color annotation.Color
}

// NewCapture creates a capture in view mode with red as the paint colour
func NewCapture(store *annotation.Store) *Capture {
	return &Capture{
		store: store,
		mode:  ModeView,
		color: annotation.Red,
	}
}

// Mode returns the current capture mode
func (c *Capture) Mode() Mode { return c.mode }

// Color returns the paint colour
func (c *Capture) Color() annotation.Color { return c.color }

// SetView stops capturing
func (c *Capture) SetView() {
	c.mode = ModeView
}

// SetTool selects a paint colour or the eraser
func (c *Capture) SetTool(tool string) error {
	tool = strings.ToLower(strings.TrimSpace(tool))
	if tool == EraserTool {
		c.mode = ModeErase
		return nil
	}

	color, err := annotation.ParseColor(tool)
	if err != nil {
		return fmt.Errorf("unknown annotation tool %q: %w", tool, err)
	}
	c.color = color
	c.mode = ModePaint
	return nil
}

// Complete handles a pointer-up on page, whose container is at origin in client space
func (c *Capture) Complete(page int, origin annotation.Point, sel Selection) CaptureResult {
	result := CaptureResult{Mode: c.mode, Page: page}
	if c.mode == ModeView {
		result.Discarded = true
		return result
	}
	defer sel.Clear()

	text := strings.TrimSpace(sel.Text())
	clientRects := sel.ClientRects()
	if sel.IsCollapsed() || text == "" || len(clientRects) == 0 {
		result.Discarded = true
		return result
	}

	rects := make([]annotation.Rect, 0, len(clientRects))
	for _, r := range clientRects {
		rects = append(rects, r.Sub(origin))
	}

	if c.mode == ModeErase {
		result.Erased = c.store.EraseOverlapping(page, rects)
		return result
	}

	for _, r := range rects {
		if id, ok := c.store.Create(page, c.color, r, text); ok {
			result.Created = append(result.Created, id)
		}
	}
	return result
}
