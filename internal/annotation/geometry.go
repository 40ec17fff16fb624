package annotation

import "fmt"

// Rect is an axis-aligned rectangle in screen-like coordinates (origin at the
// top-left, y growing downwards).
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Point is a position in the same coordinate space as Rect
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewRect builds a Rect from its top-left corner and size
func NewRect(x, y, width, height float64) Rect {
	return Rect{Left: x, Top: y, Right: x + width, Bottom: y + height}
}

// Width returns the horizontal extent of r
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent of r
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// IsEmpty reports whether r has no positive area
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Sub translates r so that origin becomes the new (0, 0)
func (r Rect) Sub(origin Point) Rect {
	return Rect{
		Left:   r.Left - origin.X,
		Top:    r.Top - origin.Y,
		Right:  r.Right - origin.X,
		Bottom: r.Bottom - origin.Y,
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("[%g,%g %gx%g]", r.Left, r.Top, r.Width(), r.Height())
}

// Overlaps reports whether a and b share at least one point. Rectangles that
// only touch along an edge overlap.
func Overlaps(a, b Rect) bool {
	return !(b.Left > a.Right ||
		b.Right < a.Left ||
		b.Top > a.Bottom ||
		b.Bottom < a.Top)
}

// OverlapsAny reports whether r overlaps at least one of rects
func OverlapsAny(r Rect, rects []Rect) bool {
	for _, other := range rects {
		if Overlaps(r, other) {
			return true
		}
	}
	return false
}
