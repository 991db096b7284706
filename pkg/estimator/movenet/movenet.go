// Package movenet runs MoveNet single-pose models on the OpenCV DNN module.
package movenet

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/teslashibe/go-posebear/pkg/debug"
	"github.com/teslashibe/go-posebear/pkg/estimator"
	"github.com/teslashibe/go-posebear/pkg/pose"
	"gocv.io/x/gocv"
)

// Input tensor layouts.
const (
	LayoutNCHW = "nchw" // [1, 3, H, W], what BlobFromImage produces
	LayoutNHWC = "nhwc" // [1, H, W, 3], the TensorFlow export layout
)

// Config holds MoveNet configuration.
type Config struct {
	Model       estimator.ModelSpec
	InputSize   int    // 192 for Lightning, 256 for Thunder
	InputLayout string // LayoutNCHW or LayoutNHWC
}

// DefaultConfig returns production defaults for MoveNet Lightning.
func DefaultConfig() Config {
	return Config{
		Model:       estimator.ModelSpec{Path: "models/movenet_singlepose_lightning.onnx"},
		InputSize:   192,
		InputLayout: LayoutNHWC,
	}
}

// Estimator runs MoveNet single-pose inference.
type Estimator struct {
	net    gocv.Net
	config Config
	mu     sync.Mutex // Protects inference
	closed bool
}

// New loads the model, downloading it first when the file is missing and a URL is set.
// Failures are ModelLoadErrors.
func New(ctx context.Context, cfg Config) (*Estimator, error) {
	if cfg.InputSize <= 0 {
		cfg.InputSize = 192
	}
	if cfg.InputLayout != LayoutNCHW && cfg.InputLayout != LayoutNHWC {
		return nil, &estimator.ModelLoadError{
			Model: cfg.Model.Path,
			Err:   fmt.Errorf("unknown input layout %q", cfg.InputLayout),
		}
	}

	path, err := estimator.EnsureModel(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		return nil, &estimator.ModelLoadError{Model: path, Err: fmt.Errorf("failed to load MoveNet model")}
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Estimator{net: net, config: cfg}, nil
}

// Factory returns an estimator.Factory building MoveNet estimators from cfg.
func Factory(cfg Config) estimator.Factory {
	return estimator.FactoryFunc(func(ctx context.Context) (estimator.Estimator, error) {
		return New(ctx, cfg)
	})
}

// Estimate finds at most one pose in the frame.
func (e *Estimator) Estimate(ctx context.Context, frame image.Image, opts estimator.Options) ([]pose.Pose, error) {
	if err := ctx.Err(); err != nil {
		return nil, estimator.WrapEstimation("movenet", err)
	}
	if frame == nil {
		return nil, estimator.WrapEstimation("movenet", fmt.Errorf("nil frame"))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, estimator.WrapEstimation("movenet", estimator.ErrClosed)
	}

	img, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, estimator.WrapEstimation("movenet", fmt.Errorf("convert frame: %w", err))
	}
	defer img.Close()

	if img.Empty() {
		return nil, estimator.WrapEstimation("movenet", fmt.Errorf("empty frame"))
	}

	w, h := img.Cols(), img.Rows()

	blob, err := e.inputBlob(img)
	if err != nil {
		return nil, estimator.WrapEstimation("movenet", err)
	}
	defer blob.Close()

	e.net.SetInput(blob, "")

	output := e.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, estimator.WrapEstimation("movenet", fmt.Errorf("read output: %w", err))
	}

	p, err := pose.DecodeMoveNet(data, pose.MoveNet, w, h)
	if err != nil {
		return nil, estimator.WrapEstimation("movenet", err)
	}

	debug.TickLog("movenet estimate", "score", *p.Score)

	return estimator.ApplyOptions([]pose.Pose{p}, opts, w), nil
}

// inputBlob resizes the BGR frame to the model input and lays it out as the
// model expects. MoveNet takes RGB values in 0-255.
func (e *Estimator) inputBlob(img gocv.Mat) (gocv.Mat, error) {
	size := image.Pt(e.config.InputSize, e.config.InputSize)

	if e.config.InputLayout == LayoutNCHW {
		return gocv.BlobFromImage(img, 1.0, size, gocv.NewScalar(0, 0, 0, 0), true, false), nil
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, size, 0, 0, gocv.InterpolationLinear)

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(resized, &rgb, gocv.ColorBGRToRGB)

	pixels := rgb.ToBytes()
	raw := make([]byte, len(pixels)*4)
	for i, v := range pixels {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(float32(v)))
	}

	blob, err := gocv.NewMatWithSizesFromBytes(
		[]int{1, e.config.InputSize, e.config.InputSize, 3}, gocv.MatTypeCV32F, raw)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("build input tensor: %w", err)
	}
	return blob, nil
}

// Topology returns the MoveNet joint layout.
func (e *Estimator) Topology() pose.Topology {
	return pose.MoveNet
}

// Close releases the model.
func (e *Estimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.net.Close()
}
