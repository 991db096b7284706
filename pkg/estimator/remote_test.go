package estimator

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-posebear/pkg/pose"
)

// poseServer answers every frame with reply(req).
func poseServer(t *testing.T, reply func(RemoteRequest) RemoteResponse) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var req RemoteRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			msgType, data, err := conn.ReadMessage()
			if err != nil || msgType != websocket.BinaryMessage || len(data) == 0 {
				return
			}
			out, _ := json.Marshal(reply(req))
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestRemote_Estimate(t *testing.T) {
	var seen RemoteRequest
	srv := poseServer(t, func(req RemoteRequest) RemoteResponse {
		seen = req
		return RemoteResponse{Poses: []pose.Pose{
			{Keypoints: []pose.Keypoint{{X: 10, Y: 20, Score: pose.Score(0.8)}, {X: 30, Y: 40}}},
			{Keypoints: []pose.Keypoint{{X: 1, Y: 1}}},
		}}
	})
	defer srv.Close()

	r, err := DialRemote(context.Background(), DefaultRemoteConfig(wsURL(srv)))
	require.NoError(t, err)
	defer r.Close()

	frame := image.NewRGBA(image.Rect(0, 0, 64, 48))
	poses, err := r.Estimate(context.Background(), frame, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 64, seen.Width)
	assert.Equal(t, 48, seen.Height)
	assert.Equal(t, 1, seen.MaxPoses)

	// MaxPoses is enforced client side too
	require.Len(t, poses, 1)
	kps := poses[0].Keypoints
	require.Len(t, kps, 2)
	assert.Equal(t, 0, kps[0].Index)
	assert.Equal(t, "nose", kps[0].Name)
	assert.Equal(t, 1, kps[1].Index)
	assert.Equal(t, "left_eye", kps[1].Name)
	assert.Equal(t, 1.0, kps[1].Confidence())
}

func TestRemote_ServerError(t *testing.T) {
	srv := poseServer(t, func(RemoteRequest) RemoteResponse {
		return RemoteResponse{Error: "out of memory"}
	})
	defer srv.Close()

	r, err := DialRemote(context.Background(), DefaultRemoteConfig(wsURL(srv)))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Estimate(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)), DefaultOptions())
	var estErr *EstimationError
	require.True(t, errors.As(err, &estErr))
	assert.Contains(t, err.Error(), "out of memory")
}

func TestRemote_Closed(t *testing.T) {
	srv := poseServer(t, func(RemoteRequest) RemoteResponse { return RemoteResponse{} })
	defer srv.Close()

	r, err := DialRemote(context.Background(), DefaultRemoteConfig(wsURL(srv)))
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err = r.Estimate(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)), DefaultOptions())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDialRemote_Unreachable(t *testing.T) {
	_, err := DialRemote(context.Background(), DefaultRemoteConfig("ws://127.0.0.1:1/estimate"))
	var loadErr *ModelLoadError
	assert.True(t, errors.As(err, &loadErr), "got %v", err)
}

func TestRemoteFactory(t *testing.T) {
	srv := poseServer(t, func(RemoteRequest) RemoteResponse { return RemoteResponse{} })
	defer srv.Close()

	est, err := RemoteFactory(DefaultRemoteConfig(wsURL(srv))).Create(context.Background())
	require.NoError(t, err)
	defer est.Close()

	poses, err := est.Estimate(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, poses)
	assert.Equal(t, "movenet", est.Topology().Name)
}
