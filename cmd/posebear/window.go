package main

import (
	"context"
	"sync"

	"github.com/teslashibe/go-posebear/internal/log"
	"github.com/teslashibe/go-posebear/pkg/pipeline"
	"github.com/teslashibe/go-posebear/pkg/render"
	"github.com/teslashibe/go-posebear/pkg/render/matcanvas"
	"gocv.io/x/gocv"
)

// windowPresenter shows the canvas in a native OpenCV window. Present runs
// on tick goroutines and only hands over a copy; Loop paints on the main
// thread.
type windowPresenter struct {
	title string

	mu      sync.Mutex
	pending *gocv.Mat
	alert   string
}

func newWindowPresenter(title string) *windowPresenter {
	return &windowPresenter{title: title}
}

// Present implements pipeline.Presenter.
func (w *windowPresenter) Present(c render.Canvas) {
	mc, ok := c.(*matcanvas.Canvas)
	if !ok {
		return
	}
	frame := mc.Mat()

	w.mu.Lock()
	if w.pending != nil {
		w.pending.Close()
	}
	w.pending = &frame
	w.mu.Unlock()
}

// Notify implements pipeline.Notifier. The message is shown in the title
// bar since OpenCV has no dialog.
func (w *windowPresenter) Notify(e pipeline.Event) {
	w.mu.Lock()
	w.alert = e.Message
	w.mu.Unlock()
}

// Loop displays frames until ctx is done or the user presses Esc or q.
func (w *windowPresenter) Loop(ctx context.Context, cancel context.CancelFunc) {
	win := gocv.NewWindow(w.title)
	defer win.Close()

	shownAlert := ""
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		default:
		}

		w.mu.Lock()
		frame := w.pending
		w.pending = nil
		alert := w.alert
		w.mu.Unlock()

		if frame != nil {
			win.IMShow(*frame)
			frame.Close()
		}
		if alert != shownAlert {
			win.SetWindowTitle(w.title + " - " + alert)
			shownAlert = alert
		}

		if key := win.WaitKey(10); key == 27 || key == 'q' {
			log.Info("preview window closed")
			cancel()
			w.drain()
			return
		}
	}
}

func (w *windowPresenter) drain() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Close()
		w.pending = nil
	}
}
