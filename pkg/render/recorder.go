package render

import (
	"image"
	"sync"
)

// Op names recorded by Recorder.
const (
	OpImage  = "image"
	OpCircle = "circle"
	OpLine   = "line"
)

// Call is one recorded draw, with coordinates already in device pixels.
type Call struct {
	Op     string
	Points []Point // circle: centre; line: from, to; image: origin
	Radius float64
	Style  Style
	Image  image.Image
}

// Recorder is a Canvas that records draw calls instead of painting.
// It is safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	width     int
	height    int
	transform Transform
	calls     []Call
	resizes   int
}

// NewRecorder creates an empty recorder with an identity transform.
func NewRecorder() *Recorder {
	return &Recorder{transform: Identity()}
}

// Resize implements Canvas.
func (r *Recorder) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	r.transform = Identity()
	r.resizes++
}

// Size implements Canvas.
func (r *Recorder) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// Translate implements Canvas.
func (r *Recorder) Translate(dx, dy float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transform = r.transform.Translate(dx, dy)
}

// Scale implements Canvas.
func (r *Recorder) Scale(sx, sy float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transform = r.transform.Scale(sx, sy)
}

// DrawImage implements Canvas.
func (r *Recorder) DrawImage(img image.Image) {
	r.add(Call{Op: OpImage, Points: []Point{r.apply(Point{})}, Image: img})
}

// Circle implements Canvas.
func (r *Recorder) Circle(center Point, radius float64, style Style) {
	r.add(Call{Op: OpCircle, Points: []Point{r.apply(center)}, Radius: radius, Style: style})
}

// Line implements Canvas.
func (r *Recorder) Line(from, to Point, style Style) {
	r.add(Call{Op: OpLine, Points: []Point{r.apply(from), r.apply(to)}, Style: style})
}

func (r *Recorder) apply(p Point) Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transform.Apply(p)
}

func (r *Recorder) add(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

// Transform returns the current transform.
func (r *Recorder) Transform() Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transform
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how many calls of op were recorded.
func (r *Recorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Resizes returns how many times Resize was called.
func (r *Recorder) Resizes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resizes
}

// Reset forgets recorded calls but keeps size and transform.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
