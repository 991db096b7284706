// Package render draws estimated poses over the live frame.
//
// Drawing goes through the Canvas interface, a small subset of a 2D canvas
// context. The policy functions in this package are stateless: given a canvas
// and a pose they issue the same calls every time.
package render

import (
	"image"
	"image/color"
)

// Style describes how a primitive is painted. A zero Fill alpha means no fill.
type Style struct {
	Fill      color.RGBA
	Stroke    color.RGBA
	LineWidth float64
}

// Canvas is a 2D drawing surface with a current transform.
// All coordinates are in user space and go through the transform.
type Canvas interface {
	// Resize sets the pixel size, clearing the surface and resetting the
	// transform to identity.
	Resize(width, height int)
	Size() (width, height int)

	// Translate and Scale compose onto the current transform.
	Translate(dx, dy float64)
	Scale(sx, sy float64)

	// DrawImage paints img at the origin at its natural size.
	DrawImage(img image.Image)

	// Circle fills then strokes a circle.
	Circle(center Point, radius float64, style Style)

	// Line strokes a straight segment.
	Line(from, to Point, style Style)
}
