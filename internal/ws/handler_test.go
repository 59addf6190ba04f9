package ws

import (
	"context"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lakotafox/top2d/internal/hub"
	"github.com/lakotafox/top2d/internal/room"
	"github.com/lakotafox/top2d/internal/sched"
)

func newTestServer(t *testing.T) string {
	t.Helper()
	sch := sched.New()
	t.Cleanup(sch.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, room.DefaultConfig(), sch, zap.NewNop())

	srv := httptest.NewServer(Handler(h, zap.NewNop()))
	t.Cleanup(srv.Close)
	return strings.Replace(srv.URL, "http", "ws", 1)
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	return string(data)
}

func TestConnectionReceivesWelcome(t *testing.T) {
	url := newTestServer(t)

	conn := dial(t, url+"/?room=ABC123")
	defer conn.Close(websocket.StatusNormalClosure, "")

	welcome := readFrame(t, conn)
	require.Contains(t, welcome, `"type":"welcome"`)
	require.Contains(t, welcome, "You are player 1/4")
}

func TestRejectedConnectionsDoNotLeakWriters(t *testing.T) {
	url := newTestServer(t) + "/?room=ABC123"

	// fill the room to its cap
	conns := make([]*websocket.Conn, 0, 4)
	for i := 0; i < 4; i++ {
		conn := dial(t, url)
		require.Contains(t, readFrame(t, conn), `"type":"welcome"`)
		conns = append(conns, conn)
	}
	t.Cleanup(func() {
		for _, c := range conns {
			c.Close(websocket.StatusNormalClosure, "")
		}
	})

	baseline := runtime.NumGoroutine()

	for i := 0; i < 20; i++ {
		conn := dial(t, url)
		require.Contains(t, readFrame(t, conn), "Room is full")

		// the server closes the socket after the capacity notice
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, _, err := conn.Read(ctx)
		cancel()
		require.Error(t, err)
		conn.Close(websocket.StatusNormalClosure, "")
	}

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline+2
	}, 2*time.Second, 20*time.Millisecond,
		"each rejected connection must wind down completely")
}
