// Package matcanvas implements render.Canvas on an OpenCV BGR Mat.
package matcanvas

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/teslashibe/go-posebear/pkg/render"
	"gocv.io/x/gocv"
)

// Canvas paints into a BGR Mat. Methods are safe for concurrent use, but a
// caller drawing a whole frame should hold its own lock across the calls.
type Canvas struct {
	mu        sync.Mutex
	mat       gocv.Mat
	transform render.Transform
	closed    bool
}

// New creates a canvas of the given size. Call Close when done.
func New(width, height int) *Canvas {
	c := &Canvas{mat: gocv.NewMat(), transform: render.Identity()}
	c.Resize(width, height)
	return c
}

// Resize implements render.Canvas.
func (c *Canvas) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.mat.Close()
	if width <= 0 || height <= 0 {
		c.mat = gocv.NewMat()
	} else {
		c.mat = gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	}
	c.transform = render.Identity()
}

// Size implements render.Canvas.
func (c *Canvas) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mat.Cols(), c.mat.Rows()
}

// Translate implements render.Canvas.
func (c *Canvas) Translate(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transform = c.transform.Translate(dx, dy)
}

// Scale implements render.Canvas.
func (c *Canvas) Scale(sx, sy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transform = c.transform.Scale(sx, sy)
}

// DrawImage warps img through the current transform onto the canvas.
// Pixels outside the warped image are cleared.
func (c *Canvas) DrawImage(img image.Image) {
	if img == nil {
		return
	}
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return
	}
	defer src.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.mat.Empty() {
		return
	}

	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer m.Close()
	t := c.transform
	e, f := pixelOffsets(t)
	m.SetDoubleAt(0, 0, t.A)
	m.SetDoubleAt(0, 1, t.C)
	m.SetDoubleAt(0, 2, e)
	m.SetDoubleAt(1, 0, t.B)
	m.SetDoubleAt(1, 1, t.D)
	m.SetDoubleAt(1, 2, f)

	gocv.WarpAffine(src, &c.mat, m, image.Pt(c.mat.Cols(), c.mat.Rows()))
}

// pixelOffsets converts the translation of t to pixel indices. The
// transform maps continuous coordinates where pixel i spans [i, i+1);
// WarpAffine maps pixel centres by index, so a mirror by w must land
// column 0 on column w-1.
func pixelOffsets(t render.Transform) (float64, float64) {
	e := t.E + 0.5*(t.A+t.C) - 0.5
	f := t.F + 0.5*(t.B+t.D) - 0.5
	return e, f
}

// Circle implements render.Canvas.
func (c *Canvas) Circle(center render.Point, radius float64, style render.Style) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.mat.Empty() {
		return
	}

	p := toPixel(c.transform.Apply(center))
	r := int(math.Round(radius * c.transform.LinearScale()))

	if style.Fill.A != 0 {
		gocv.Circle(&c.mat, p, r, style.Fill, -1)
	}
	if style.Stroke.A != 0 && style.LineWidth > 0 {
		gocv.Circle(&c.mat, p, r, style.Stroke, c.thickness(style.LineWidth))
	}
}

// Line implements render.Canvas.
func (c *Canvas) Line(from, to render.Point, style render.Style) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.mat.Empty() || style.Stroke.A == 0 {
		return
	}

	a := toPixel(c.transform.Apply(from))
	b := toPixel(c.transform.Apply(to))
	gocv.Line(&c.mat, a, b, style.Stroke, c.thickness(style.LineWidth))
}

func (c *Canvas) thickness(width float64) int {
	t := int(math.Round(width * c.transform.LinearScale()))
	if t < 1 {
		t = 1
	}
	return t
}

func toPixel(p render.Point) image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// EncodeJPEG returns the canvas as JPEG bytes.
func (c *Canvas) EncodeJPEG() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.mat.Empty() {
		return nil, fmt.Errorf("canvas is empty")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, c.mat)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// buf aliases C memory
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Image returns a copy of the canvas as an image.Image.
func (c *Canvas) Image() (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.mat.Empty() {
		return nil, fmt.Errorf("canvas is empty")
	}
	return c.mat.ToImage()
}

// Mat returns a clone of the underlying Mat. The caller must close it.
func (c *Canvas) Mat() gocv.Mat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mat.Clone()
}

// Close releases the Mat.
func (c *Canvas) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.mat.Close()
}
