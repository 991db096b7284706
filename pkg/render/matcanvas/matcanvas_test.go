package matcanvas

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-posebear/pkg/render"
)

func TestResize(t *testing.T) {
	c := New(360, 270)
	defer c.Close()

	w, h := c.Size()
	assert.Equal(t, 360, w)
	assert.Equal(t, 270, h)

	c.Resize(64, 48)
	w, h = c.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
}

func TestDrawImageMirrored(t *testing.T) {
	const w, h = 40, 20
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	// left half red, right half blue
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				src.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				src.Set(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}

	c := New(w, h)
	defer c.Close()
	c.Translate(w, 0)
	c.Scale(-1, 1)
	c.DrawImage(src)

	mat := c.Mat()
	defer mat.Close()

	// BGR: the red half now sits on the right
	right := mat.GetVecbAt(h/2, w-5)
	left := mat.GetVecbAt(h/2, 5)
	assert.Greater(t, right[2], uint8(200), "expected red on the right")
	assert.Greater(t, left[0], uint8(200), "expected blue on the left")
}

func TestDrawImageMirrorEdges(t *testing.T) {
	const w, h = 16, 4
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x == 0 {
				src.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				src.Set(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}

	c := New(w, h)
	defer c.Close()
	c.Translate(w, 0)
	c.Scale(-1, 1)
	c.DrawImage(src)

	mat := c.Mat()
	defer mat.Close()

	for y := 0; y < h; y++ {
		last := mat.GetVecbAt(y, w-1)
		assert.Equal(t, uint8(255), last[2], "source column 0 lands on the last column")
		assert.Equal(t, uint8(0), last[0])

		first := mat.GetVecbAt(y, 0)
		assert.Equal(t, uint8(255), first[0], "first column is filled, not cleared")
		assert.Equal(t, uint8(0), first[2])
	}
}

func TestPixelOffsets(t *testing.T) {
	e, f := pixelOffsets(render.Identity())
	assert.Equal(t, 0.0, e)
	assert.Equal(t, 0.0, f)

	e, f = pixelOffsets(render.Mirror(360))
	assert.Equal(t, 359.0, e)
	assert.Equal(t, 0.0, f)
}

func TestCircleAndLine(t *testing.T) {
	c := New(100, 100)
	defer c.Close()

	c.Circle(render.Point{X: 50, Y: 50}, 10, render.Style{
		Fill:      render.Green,
		Stroke:    render.White,
		LineWidth: 2,
	})
	c.Line(render.Point{X: 0, Y: 90}, render.Point{X: 99, Y: 90}, render.Style{
		Stroke:    render.White,
		LineWidth: 2,
	})

	mat := c.Mat()
	defer mat.Close()

	centre := mat.GetVecbAt(50, 50)
	assert.Equal(t, uint8(0), centre[0])
	assert.Equal(t, uint8(128), centre[1])
	assert.Equal(t, uint8(0), centre[2])

	onLine := mat.GetVecbAt(90, 50)
	assert.Equal(t, uint8(255), onLine[0])
	assert.Equal(t, uint8(255), onLine[1])
	assert.Equal(t, uint8(255), onLine[2])
}

func TestEncodeJPEG(t *testing.T) {
	c := New(32, 24)
	defer c.Close()

	data, err := c.EncodeJPEG()
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Width)
	assert.Equal(t, 24, cfg.Height)
}

func TestClosedCanvas(t *testing.T) {
	c := New(10, 10)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	// drawing after close is a no-op
	c.Circle(render.Point{X: 1, Y: 1}, 1, render.Style{Fill: render.Red})
	_, err := c.EncodeJPEG()
	assert.Error(t, err)
}

func TestImplementsCanvas(t *testing.T) {
	var _ render.Canvas = (*Canvas)(nil)
}
