package endpoints

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"livescore/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubRouter(t *testing.T) (*gin.Engine, *realtime.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := realtime.NewHub(realtime.DefaultConfig(), zerolog.Nop())
	router := gin.New()
	WebSocketHandler(router, hub)
	return router, hub
}

func TestWebSocketHandler_StatsAndHealth(t *testing.T) {
	router, hub := newHubRouter(t)
	conn, err := hub.Register()
	require.NoError(t, err)
	hub.Subscribe(conn.ID(), "101")

	rec := doJSON(router, http.MethodGet, "/api/v1/ws/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `1`, string(mustField(t, rec.Body.Bytes(), "totalConnections")))
	assert.JSONEq(t, `{"101":1}`, string(mustField(t, rec.Body.Bytes(), "matches")))

	rec = doJSON(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `"running"`, string(mustField(t, rec.Body.Bytes(), "hub")))

	rec = doJSON(router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "livescore_hub_connections 1")

	require.Error(t, hub.Shutdown(context.Background(), time.Millisecond))
	rec = doJSON(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWebSocketHandler_UpgradeThroughGin(t *testing.T) {
	router, hub := newHubRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "subscribe", "matchId": 5}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ack map[string]any
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, "subscribed", ack["type"])

	assert.Equal(t, 1, hub.Publish("5", realtime.EventScoreUpdate, map[string]int{"homeScore": 1}))
}
