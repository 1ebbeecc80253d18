package realtime

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client pumps frames between a websocket and its hub Connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *Connection
	logger  zerolog.Logger
}

// NewClient binds conn to session. The socket is closed as soon as the
// session is closed, so a forced close or an overflow drop never waits on a
// blocked write.
func NewClient(hub *Hub, conn *websocket.Conn, session *Connection) *Client {
	c := &Client{
		hub:     hub,
		conn:    conn,
		session: session,
		logger:  hub.logger.With().Str("connId", string(session.ID())).Logger(),
	}
	session.setCloser(func() { conn.Close() })
	return c
}

// ReadPump reads client commands until the socket fails, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c.session.ID())
		c.conn.Close()
	}()

	pongWait := c.hub.cfg.PongWait
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}
		c.handleMessage(message)
	}
}

// handleMessage never ends the connection: bad input gets an error frame.
func (c *Client) handleMessage(message []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Debug().Err(err).Msg("Invalid inbound message")
		c.sendError("invalid message format")
		return
	}

	msgType := strings.ToLower(strings.TrimSpace(msg.Type))
	switch msgType {
	case MessageTypeSubscribe, MessageTypeUnsubscribe:
		matchID, ok := parseMatchID(msg.MatchID)
		if !ok {
			c.sendError("matchId is required")
			return
		}
		if msgType == MessageTypeSubscribe {
			if c.hub.Subscribe(c.session.ID(), matchID) {
				c.reply(controlMessage{Type: MessageTypeSubscribed, MatchID: matchID})
			}
			return
		}
		c.hub.Unsubscribe(c.session.ID(), matchID)
		c.reply(controlMessage{Type: MessageTypeUnsubscribed, MatchID: matchID})
	case MessageTypePing:
		c.reply(controlMessage{Type: MessageTypePong})
	default:
		c.logger.Debug().Str("type", msg.Type).Msg("Unknown inbound message type")
		c.sendError("unknown message type")
	}
}

func (c *Client) sendError(text string) {
	c.reply(controlMessage{Type: MessageTypeError, Message: text})
}

func (c *Client) reply(msg controlMessage) {
	if err := c.hub.send(c.session.ID(), encodeControl(msg)); err != nil {
		c.logger.Debug().Err(err).Str("type", msg.Type).Msg("Reply not queued")
	}
}

// WritePump is the only writer of the socket, so frames reach the peer in the
// order they were queued.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.hub.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.session.Outbound():
			if err := c.write(websocket.TextMessage, frame); err != nil {
				c.logger.Debug().Err(err).Msg("WebSocket write failed")
				c.hub.Unregister(c.session.ID())
				return
			}

		case <-c.session.Closing():
			// Closing also fires when the session was dropped; only a
			// draining hub says goodbye.
			if c.session.State() == StateClosed {
				return
			}
			c.goAway()
			<-c.session.Done()
			return

		case <-c.session.Done():
			return

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.hub.Unregister(c.session.ID())
				return
			}
		}
	}
}

// goAway flushes what is already queued, then sends a close frame. The peer's
// close reply ends ReadPump, which unregisters the connection.
func (c *Client) goAway() {
	for n := len(c.session.Outbound()); n > 0; n-- {
		select {
		case <-c.session.Done():
			return
		default:
		}
		if err := c.write(websocket.TextMessage, <-c.session.Outbound()); err != nil {
			c.hub.Unregister(c.session.ID())
			return
		}
	}
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	if err := c.write(websocket.CloseMessage, msg); err != nil {
		c.hub.Unregister(c.session.ID())
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteWait))
	return c.conn.WriteMessage(messageType, data)
}
