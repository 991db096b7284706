package estimator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teslashibe/go-posebear/pkg/debug"
	"github.com/teslashibe/go-posebear/pkg/pose"
)

// RemoteRequest precedes each JPEG frame sent to a pose server.
type RemoteRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Options
}

// RemoteResponse is the pose server's reply to one frame.
type RemoteResponse struct {
	Poses []pose.Pose `json:"poses"`
	Error string      `json:"error,omitempty"`
}

// RemoteConfig holds remote estimator configuration.
type RemoteConfig struct {
	URL              string
	Topology         pose.Topology
	JPEGQuality      int
	HandshakeTimeout time.Duration
}

// DefaultRemoteConfig returns defaults for a MoveNet pose server at url.
func DefaultRemoteConfig(url string) RemoteConfig {
	return RemoteConfig{
		URL:              url,
		Topology:         pose.MoveNet,
		JPEGQuality:      80,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Remote estimates poses on a pose server over a websocket. Each call sends a
// JSON request, then the frame as a binary JPEG message, and reads one JSON
// reply. Calls are serialized on the connection.
type Remote struct {
	config RemoteConfig
	conn   *websocket.Conn

	mu     sync.Mutex
	closed bool
	broken error
}

// DialRemote connects to a pose server. Failures are ModelLoadErrors.
func DialRemote(ctx context.Context, cfg RemoteConfig) (*Remote, error) {
	if cfg.URL == "" {
		return nil, &ModelLoadError{Model: "remote", Err: ErrNoModel}
	}
	if err := cfg.Topology.Validate(); err != nil {
		return nil, &ModelLoadError{Model: cfg.URL, Err: err}
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 80
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, &ModelLoadError{Model: cfg.URL, Err: fmt.Errorf("connect: %w", err)}
	}

	return &Remote{config: cfg, conn: conn}, nil
}

// Estimate sends the frame to the pose server and waits for its reply.
func (r *Remote) Estimate(ctx context.Context, frame image.Image, opts Options) ([]pose.Pose, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, WrapEstimation("remote", ErrClosed)
	}
	if r.broken != nil {
		return nil, WrapEstimation("remote", fmt.Errorf("connection unusable: %w", r.broken))
	}
	if frame == nil {
		return nil, WrapEstimation("remote", fmt.Errorf("nil frame"))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: r.config.JPEGQuality}); err != nil {
		return nil, WrapEstimation("remote", fmt.Errorf("encode frame: %w", err))
	}

	// Unblock the read if the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		r.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	b := frame.Bounds()
	req := RemoteRequest{Width: b.Dx(), Height: b.Dy(), Options: opts}

	resp, err := r.roundTrip(req, buf.Bytes())
	if err != nil {
		r.broken = err
		return nil, WrapEstimation("remote", err)
	}
	if resp.Error != "" {
		return nil, WrapEstimation("remote", fmt.Errorf("server: %s", resp.Error))
	}

	for i := range resp.Poses {
		for j := range resp.Poses[i].Keypoints {
			kp := &resp.Poses[i].Keypoints[j]
			kp.Index = j
			if kp.Name == "" && j < r.config.Topology.NumKeypoints() {
				kp.Name = r.config.Topology.Keypoints[j]
			}
		}
	}

	debug.Log("remote estimate", "poses", len(resp.Poses), "bytes", buf.Len())
	return ApplyOptions(resp.Poses, opts, b.Dx()), nil
}

func (r *Remote) roundTrip(req RemoteRequest, jpegData []byte) (*RemoteResponse, error) {
	if err := r.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}
	if err := r.conn.WriteMessage(websocket.BinaryMessage, jpegData); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	msgType, data, err := r.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	if msgType != websocket.TextMessage {
		return nil, fmt.Errorf("unexpected reply message type %d", msgType)
	}

	var resp RemoteResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &resp, nil
}

// Topology returns the configured joint layout.
func (r *Remote) Topology() pose.Topology {
	return r.config.Topology
}

// Close sends a close frame and drops the connection.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	r.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return r.conn.Close()
}

// RemoteFactory returns a Factory dialing a new connection per estimator.
func RemoteFactory(cfg RemoteConfig) Factory {
	return FactoryFunc(func(ctx context.Context) (Estimator, error) {
		return DialRemote(ctx, cfg)
	})
}
