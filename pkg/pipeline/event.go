package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-posebear/pkg/render"
)

// EventKind classifies a user-facing event.
type EventKind string

const (
	EventStartupFailed    EventKind = "startup_failed"
	EventEstimationFailed EventKind = "estimation_failed"
)

// Event is a failure the user should be told about.
type Event struct {
	ID      uuid.UUID `json:"id"`
	Time    time.Time `json:"time"`
	Kind    EventKind `json:"kind"`
	State   State     `json:"state"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func newEvent(kind EventKind, state State, err error) Event {
	return Event{
		ID:      uuid.New(),
		Time:    time.Now(),
		Kind:    kind,
		State:   state,
		Message: err.Error(),
		Err:     err,
	}
}

// Notifier surfaces events to the user. It should not block for long.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify calls f.
func (f NotifierFunc) Notify(e Event) { f(e) }

// MultiNotifier fans an event out to every non-nil notifier.
func MultiNotifier(ns ...Notifier) Notifier {
	return NotifierFunc(func(e Event) {
		for _, n := range ns {
			if n != nil {
				n.Notify(e)
			}
		}
	})
}

// Presenter publishes the finished canvas after each tick. It is called with
// the canvas locked, so it must not draw.
type Presenter interface {
	Present(c render.Canvas)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(render.Canvas)

// Present calls f.
func (f PresenterFunc) Present(c render.Canvas) { f(c) }

// MultiPresenter presents to every non-nil presenter in order.
func MultiPresenter(ps ...Presenter) Presenter {
	return PresenterFunc(func(c render.Canvas) {
		for _, p := range ps {
			if p != nil {
				p.Present(c)
			}
		}
	})
}
