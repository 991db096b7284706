// Package device provides a camera.Source backed by an OpenCV capture device.
package device

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"sync"
	"time"

	"github.com/teslashibe/go-posebear/internal/log"
	"github.com/teslashibe/go-posebear/pkg/camera"
	"gocv.io/x/gocv"
)

// Acquirer opens capture devices. Device is a camera index ("0") or a
// file/stream URL understood by OpenCV.
type Acquirer struct {
	// Device is opened for every facing mode; a desktop has one camera.
	Device string

	// FirstFrameTimeout bounds the wait for the first decoded frame.
	FirstFrameTimeout time.Duration
}

// NewAcquirer creates an acquirer for the given default device.
func NewAcquirer(device string) *Acquirer {
	return &Acquirer{
		Device:            device,
		FirstFrameTimeout: 5 * time.Second,
	}
}

// Acquire opens the device, applies the constraints as hints, starts playback
// and waits for the first frame so the actual size is known.
func (a *Acquirer) Acquire(ctx context.Context, cfg camera.Config) (camera.Source, error) {
	dev := a.device()

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &camera.AcquisitionError{Device: dev, Err: fmt.Errorf("invalid constraints: %v", errs)}
	}

	var id interface{} = dev
	if n, err := strconv.Atoi(dev); err == nil {
		id = n
	}

	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, &camera.AcquisitionError{Device: dev, Err: err}
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, &camera.AcquisitionError{Device: dev, Err: fmt.Errorf("device not opened")}
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.FrameRate))

	s := &Source{
		device: dev,
		vc:     vc,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.play()

	timeout := a.FirstFrameTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.ready:
	case <-ctx.Done():
		s.Close()
		return nil, &camera.AcquisitionError{Device: dev, Err: ctx.Err()}
	case <-timer.C:
		s.Close()
		return nil, &camera.AcquisitionError{Device: dev, Err: fmt.Errorf("no frame within %v", timeout)}
	}

	w, h := s.Size()
	log.Info("camera acquired",
		"device", dev,
		"requested", fmt.Sprintf("%dx%d@%d", cfg.Width, cfg.Height, cfg.FrameRate),
		"actual", fmt.Sprintf("%dx%d", w, h))

	return s, nil
}

func (a *Acquirer) device() string {
	if a.Device == "" {
		return "0"
	}
	return a.Device
}

// Source is a playing capture device. A reader goroutine keeps the latest
// decoded frame; readers never see a queue.
type Source struct {
	device string
	vc     *gocv.VideoCapture

	frameMu sync.RWMutex
	latest  image.Image
	width   int
	height  int

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// play starts the reader goroutine. Called exactly once per Source.
func (s *Source) play() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		mat := gocv.NewMat()
		defer mat.Close()

		misses := 0
		for {
			select {
			case <-s.done:
				return
			default:
			}

			if ok := s.vc.Read(&mat); !ok || mat.Empty() {
				misses++
				if misses == 50 {
					log.Warn("camera read failing", "device", s.device)
				}
				time.Sleep(10 * time.Millisecond)
				continue
			}
			misses = 0

			img, err := mat.ToImage()
			if err != nil {
				continue
			}

			s.frameMu.Lock()
			s.latest = img
			s.width, s.height = mat.Cols(), mat.Rows()
			s.frameMu.Unlock()

			s.readyOnce.Do(func() { close(s.ready) })
		}
	}()
}

// Frame returns the most recently decoded frame.
func (s *Source) Frame() (image.Image, error) {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	if s.latest == nil {
		return nil, camera.ErrNoFrame
	}
	return s.latest, nil
}

// Size returns the actual frame dimensions.
func (s *Source) Size() (int, int) {
	s.frameMu.RLock()
	defer s.frameMu.RUnlock()
	return s.width, s.height
}

// Close stops playback and releases the device.
func (s *Source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		err = s.vc.Close()
	})
	return err
}
