package compositor

import (
	"image"
	"math"
)

// Rect represents an axis-aligned rectangle.
// Min is the top-left corner (minimum coordinates).
// Max is the bottom-right corner (maximum coordinates).
type Rect struct {
	Min, Max Point
}

// NewRect creates a rectangle from its origin and size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{Min: Point{X: x, Y: y}, Max: Point{X: x + w, Y: y + h}}
}

// RectFromImage converts an integer rectangle.
func RectFromImage(r image.Rectangle) Rect {
	return Rect{
		Min: Point{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		Max: Point{X: float64(r.Max.X), Y: float64(r.Max.Y)},
	}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// Area returns the area, or 0 for empty rectangles.
func (r Rect) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Width() * r.Height()
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// Intersect returns the intersection of two rectangles.
// Returns the zero Rect if they don't intersect.
func (r Rect) Intersect(other Rect) Rect {
	x0 := math.Max(r.Min.X, other.Min.X)
	y0 := math.Max(r.Min.Y, other.Min.Y)
	x1 := math.Min(r.Max.X, other.Max.X)
	y1 := math.Min(r.Max.Y, other.Max.Y)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{Min: Point{X: x0, Y: y0}, Max: Point{X: x1, Y: y1}}
}

// Union returns the smallest rectangle containing both r and other.
// Empty rectangles are ignored.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Rect{
		Min: Point{X: math.Min(r.Min.X, other.Min.X), Y: math.Min(r.Min.Y, other.Min.Y)},
		Max: Point{X: math.Max(r.Max.X, other.Max.X), Y: math.Max(r.Max.Y, other.Max.Y)},
	}
}

// Enclosing returns the smallest integer rectangle containing r.
func (r Rect) Enclosing() image.Rectangle {
	if r.IsEmpty() {
		return image.Rectangle{}
	}
	return image.Rect(
		int(math.Floor(r.Min.X)), int(math.Floor(r.Min.Y)),
		int(math.Ceil(r.Max.X)), int(math.Ceil(r.Max.Y)),
	)
}

// Quad is a quadrilateral given by its corners in winding order.
type Quad struct {
	P1, P2, P3, P4 Point
}

// Bounds returns the axis-aligned bounding box of the quad.
func (q Quad) Bounds() Rect {
	minX := math.Min(math.Min(q.P1.X, q.P2.X), math.Min(q.P3.X, q.P4.X))
	minY := math.Min(math.Min(q.P1.Y, q.P2.Y), math.Min(q.P3.Y, q.P4.Y))
	maxX := math.Max(math.Max(q.P1.X, q.P2.X), math.Max(q.P3.X, q.P4.X))
	maxY := math.Max(math.Max(q.P1.Y, q.P2.Y), math.Max(q.P3.Y, q.P4.Y))
	return Rect{Min: Point{X: minX, Y: minY}, Max: Point{X: maxX, Y: maxY}}
}

// Area returns the unsigned area of the quad (shoelace formula).
func (q Quad) Area() float64 {
	sum := q.P1.Cross(q.P2) + q.P2.Cross(q.P3) + q.P3.Cross(q.P4) + q.P4.Cross(q.P1)
	return math.Abs(sum) / 2
}
