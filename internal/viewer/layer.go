package viewer

import (
	"github.com/a3tai/mcp-pdf-annotator/internal/annotation"
)

// Node is one painted annotation on the rendered layer
type Node struct {
	AnnotationID string           `json:"annotation_id"`
	Color        annotation.Color `json:"color"`
	Rect         annotation.Rect  `json:"rect"`
	Fill         string           `json:"fill"`
	Hidden       bool             `json:"hidden"`
}

// Layer is the visual annotation layer of the page on screen. Rendering
// recreates every node, so hidden marks must be re-applied afterwards.
type Layer struct {
	page    int
	palette *annotation.Palette
	nodes   []Node
}

// NewLayer creates an empty layer painting with palette
func NewLayer(palette *annotation.Palette) *Layer {
	return &Layer{palette: palette}
}

// Page returns the page the layer currently shows, 0 when nothing is rendered
func (l *Layer) Page() int { return l.page }

// Render clears the layer and paints annotations of page
func (l *Layer) Render(page int, annotations []annotation.Annotation) {
	l.page = page
	l.nodes = l.nodes[:0]
	for _, a := range annotations {
		l.nodes = append(l.nodes, Node{
			AnnotationID: a.ID,
			Color:        a.Color,
			Rect:         a.Rect(),
			Fill:         annotation.FormatColorValue(l.palette.Fill(a.Color)),
		})
	}
}

// ApplyVisibility marks nodes of hidden colours. Safe to call any number of times.
func (l *Layer) ApplyVisibility(hidden map[annotation.Color]bool) {
	for i := range l.nodes {
		l.nodes[i].Hidden = hidden[l.nodes[i].Color]
	}
}

// Clear removes every node
func (l *Layer) Clear() {
	l.page = 0
	l.nodes = nil
}

// Nodes returns a copy of the painted nodes
func (l *Layer) Nodes() []Node {
	out := make([]Node, len(l.nodes))
	copy(out, l.nodes)
	return out
}
