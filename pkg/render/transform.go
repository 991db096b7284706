package render

import "math"

// Point is a position in canvas user space.
type Point struct {
	X, Y float64
}

// Transform is a 2D affine transform, mapping (x, y) to
// (A*x + C*y + E, B*x + D*y + F) like a 2D canvas context.
type Transform struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

// Translate returns t followed by a translation in user space.
func (t Transform) Translate(dx, dy float64) Transform {
	t.E += t.A*dx + t.C*dy
	t.F += t.B*dx + t.D*dy
	return t
}

// Scale returns t followed by a scale in user space.
func (t Transform) Scale(sx, sy float64) Transform {
	t.A *= sx
	t.B *= sx
	t.C *= sy
	t.D *= sy
	return t
}

// Apply maps a user-space point to device pixels.
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.C*p.Y + t.E,
		Y: t.B*p.X + t.D*p.Y + t.F,
	}
}

// LinearScale returns the factor the transform applies to lengths, used for
// radii and line widths.
func (t Transform) LinearScale() float64 {
	return math.Sqrt(math.Abs(t.A*t.D - t.B*t.C))
}

// Mirror returns the self-view transform for a frame of the given width:
// translate(width, 0) then scale(-1, 1), so x maps to width - x.
func Mirror(width int) Transform {
	return Identity().Translate(float64(width), 0).Scale(-1, 1)
}
