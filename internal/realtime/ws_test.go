package realtime

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireMessage struct {
	Type    string          `json:"type"`
	MatchID string          `json:"matchId"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// closeNotifyListener reports every server-side socket close, hijacked ones
// included.
type closeNotifyListener struct {
	net.Listener
	closed chan struct{}
}

func (l *closeNotifyListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &closeNotifyConn{Conn: c, closed: l.closed}, nil
}

type closeNotifyConn struct {
	net.Conn
	once   sync.Once
	closed chan struct{}
}

func (c *closeNotifyConn) Close() error {
	c.once.Do(func() {
		select {
		case c.closed <- struct{}{}:
		default:
		}
	})
	return c.Conn.Close()
}

func newWSServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub, url, _ := newObservedWSServer(t, Config{SendBufferSize: 16})
	return hub, url
}

// newObservedWSServer also returns a channel that receives once per closed
// server-side socket.
func newObservedWSServer(t *testing.T, cfg Config) (*Hub, string, <-chan struct{}) {
	t.Helper()
	hub := NewHub(cfg, zerolog.Nop())
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	closed := make(chan struct{}, 16)
	srv.Listener = &closeNotifyListener{Listener: srv.Listener, closed: closed}
	srv.Start()
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http"), closed
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWire(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServeWS_SubscribeAndReceive(t *testing.T) {
	hub, url := newWSServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "subscribe", "matchId": 101}))
	ack := readWire(t, conn)
	assert.Equal(t, MessageTypeSubscribed, ack.Type)
	assert.Equal(t, "101", ack.MatchID)

	assert.Equal(t, 1, hub.Publish("101", EventScoreUpdate, map[string]int{"home": 1, "away": 0}))

	ev := readWire(t, conn)
	assert.Equal(t, string(EventScoreUpdate), ev.Type)
	assert.JSONEq(t, `{"home":1,"away":0}`, string(ev.Data))
}

func TestServeWS_UnsubscribeStopsDelivery(t *testing.T) {
	hub, url := newWSServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "subscribe", "matchId": "101"}))
	readWire(t, conn)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "unsubscribe", "matchId": "101"}))
	ack := readWire(t, conn)
	assert.Equal(t, MessageTypeUnsubscribed, ack.Type)

	assert.Equal(t, 0, hub.Publish("101", EventScoreUpdate, map[string]int{"home": 2}))
}

func TestServeWS_MalformedMessagesKeepConnectionOpen(t *testing.T) {
	hub, url := newWSServer(t)
	conn := dial(t, url)

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"not json", "hello", "invalid message format"},
		{"unknown type", `{"type":"dance"}`, "unknown message type"},
		{"missing match", `{"type":"subscribe"}`, "matchId is required"},
		{"empty match", `{"type":"subscribe","matchId":""}`, "matchId is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.payload)))
			msg := readWire(t, conn)
			assert.Equal(t, MessageTypeError, msg.Type)
			assert.Equal(t, tt.want, msg.Message)
		})
	}

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	assert.Equal(t, MessageTypePong, readWire(t, conn).Type)
	assert.Equal(t, 1, hub.SnapshotStats().TotalConnections)
}

func TestServeWS_ClientDisconnectPurgesSubscriptions(t *testing.T) {
	hub, url := newWSServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "subscribe", "matchId": "101"}))
	readWire(t, conn)
	require.Equal(t, map[MatchID]int{"101": 1}, hub.SnapshotStats().Subscriptions)

	conn.Close()

	assert.Eventually(t, func() bool {
		stats := hub.SnapshotStats()
		return stats.TotalConnections == 0 && len(stats.Subscriptions) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServeWS_ShutdownSendsGoingAway(t *testing.T) {
	hub, url := newWSServer(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	readWire(t, conn)

	done := make(chan error, 1)
	go func() { done <- hub.Shutdown(context.Background(), 2*time.Second) }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown did not finish")
	}
	assert.Equal(t, Stopped, hub.State())

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServeWS_ForcedShutdownClosesSocketOfNonReadingClient(t *testing.T) {
	hub, url, closed := newObservedWSServer(t, Config{SendBufferSize: 512, WriteWait: 3 * time.Second})
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "subscribe", "matchId": "101"}))
	require.Equal(t, MessageTypeSubscribed, readWire(t, conn).Type)

	// The client stops reading here, so the server's writes back up.
	payload := map[string]string{"filler": strings.Repeat("x", 64<<10)}
	for i := 0; i < 400; i++ {
		hub.Publish("101", EventNewCommentary, payload)
	}

	err := hub.Shutdown(context.Background(), 200*time.Millisecond)
	assert.ErrorIs(t, err, ErrShutdownForced)
	assert.Equal(t, Stopped, hub.State())

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("socket still open after forced shutdown")
	}
}

func TestServeWS_DroppedConnectionIsNotToldGoingAway(t *testing.T) {
	hub, url, closed := newObservedWSServer(t, Config{SendBufferSize: 16})
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	require.Equal(t, MessageTypePong, readWire(t, conn).Type)

	sessions := hub.registry.Connections()
	require.Len(t, sessions, 1)
	hub.dispatcher.drop(sessions[0], "101")

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("dropped connection's socket was not closed")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.False(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Equal(t, Running, hub.State())
}
