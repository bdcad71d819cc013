package httpapi

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestWSHub_BroadcastAndDisconnect(t *testing.T) {
	hub := NewWSHub(nil, zap.NewNop())
	router := NewRouter(zap.NewNop())
	router.RegisterWebSocket(hub)
	srv := httptest.NewServer(router)
	defer srv.Close()
	defer hub.Close()

	a := dialHub(t, srv)
	b := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 10*time.Millisecond)

	// 客户端发来的帧被丢弃
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("ping")))

	frame := []byte(`[{"patient_id":"1"}]`)
	assert.Equal(t, 2, hub.Broadcast(frame))
	for _, c := range []*websocket.Conn{a, b} {
		_ = c.SetReadDeadline(time.Now().Add(time.Second))
		typ, msg, err := c.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, typ)
		assert.Equal(t, frame, msg)
	}

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Count())
	_ = b.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := b.ReadMessage()
	assert.Error(t, err)
	_ = b.Close()
}

func TestWSHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewWSHub(nil, zap.NewNop())
	assert.Equal(t, 0, hub.Broadcast([]byte("[]")))
}
