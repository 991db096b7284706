package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type written struct {
	kind int
	data []byte
}

// fakeConn blocks reads until closed and records writes.
type fakeConn struct {
	mu      sync.Mutex
	writes  []written
	closed  chan struct{}
	closeMu sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) SetReadLimit(int64) {}
func (c *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) SetPongHandler(func(string) error) {}
func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}

func (c *fakeConn) WriteMessage(kind int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, written{kind, append([]byte(nil), data...)})
	return nil
}

func (c *fakeConn) Close() error {
	c.closeMu.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) Writes() []written {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]written(nil), c.writes...)
}

func startHub(t *testing.T, opts ...Option) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	require.Eventually(t, h.IsRunning, time.Second, 5*time.Millisecond)
	return h, cancel
}

func TestBroadcast(t *testing.T) {
	h, cancel := startHub(t)
	defer cancel()

	conn := newFakeConn()
	client := NewClient(h, conn)
	go client.Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.BroadcastBinary([]byte{0xff, 0xd8})
	require.NoError(t, h.BroadcastJSON(map[string]string{"kind": "alert"}))

	require.Eventually(t, func() bool { return len(conn.Writes()) == 2 }, time.Second, 5*time.Millisecond)
	w := conn.Writes()
	assert.Equal(t, websocket.BinaryMessage, w[0].kind)
	assert.Equal(t, []byte{0xff, 0xd8}, w[0].data)
	assert.Equal(t, websocket.TextMessage, w[1].kind)
	assert.JSONEq(t, `{"kind":"alert"}`, string(w[1].data))
}

func TestDisconnectUnregisters(t *testing.T) {
	h, cancel := startHub(t)
	defer cancel()

	conn := newFakeConn()
	client := NewClient(h, conn)
	go client.Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestReplayLastMessage(t *testing.T) {
	h, cancel := startHub(t, WithReplay())
	defer cancel()

	h.Broadcast(NewJSONMessage([]byte(`{"n":1}`)))
	h.Broadcast(NewJSONMessage([]byte(`{"n":2}`)))
	// let the loop consume both before anyone connects
	time.Sleep(20 * time.Millisecond)

	conn := newFakeConn()
	client := NewClient(h, conn)
	go client.Run()

	require.Eventually(t, func() bool { return len(conn.Writes()) == 1 }, time.Second, 5*time.Millisecond)
	assert.JSONEq(t, `{"n":2}`, string(conn.Writes()[0].data))
}

func TestShutdownClosesClients(t *testing.T) {
	h, cancel := startHub(t)

	conn := newFakeConn()
	client := NewClient(h, conn)
	go client.Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	select {
	case <-conn.closed:
	case <-time.After(time.Second):
		t.Fatal("client connection not closed")
	}
	assert.False(t, h.IsRunning())
	assert.Zero(t, h.ClientCount())
}
