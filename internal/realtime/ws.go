package realtime

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and attaches the socket to a new hub
// connection. Once the hub is draining it answers 503 without upgrading.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	session, err := hub.Register()
	if err != nil {
		if errors.Is(err, ErrHubClosed) {
			http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		hub.Unregister(session.ID())
		return
	}

	client := NewClient(hub, conn, session)
	hub.logger.Info().
		Str("connId", string(session.ID())).
		Str("remote", r.RemoteAddr).
		Msg("WebSocket connection established")

	go client.WritePump()
	go client.ReadPump()
}
