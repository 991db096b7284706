package device

import (
	"context"
	"errors"
	"testing"

	"github.com/teslashibe/go-posebear/pkg/camera"
)

func TestAcquire_InvalidConstraints(t *testing.T) {
	a := NewAcquirer("0")
	cfg := camera.DefaultConfig()
	cfg.Audio = true

	_, err := a.Acquire(context.Background(), cfg)

	var acqErr *camera.AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("expected AcquisitionError, got %v", err)
	}
}

func TestAcquire_MissingFile(t *testing.T) {
	a := NewAcquirer("/nonexistent/path/video.mp4")

	_, err := a.Acquire(context.Background(), camera.DefaultConfig())

	var acqErr *camera.AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("expected AcquisitionError, got %v", err)
	}
	if acqErr.Device != "/nonexistent/path/video.mp4" {
		t.Errorf("Device: got %q", acqErr.Device)
	}
}

func TestDevice(t *testing.T) {
	tests := []struct {
		name   string
		a      Acquirer
		expect string
	}{
		{"configured device", Acquirer{Device: "1"}, "1"},
		{"empty default is index 0", Acquirer{}, "0"},
		{"file path", Acquirer{Device: "/tmp/clip.mp4"}, "/tmp/clip.mp4"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.device(); got != tc.expect {
				t.Errorf("device(): got %q, want %q", got, tc.expect)
			}
		})
	}
}
