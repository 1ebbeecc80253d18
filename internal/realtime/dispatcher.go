package realtime

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Dispatcher fans events out to the subscribers of a match.
//
// Delivery is at-most-once and best-effort. A frame is only ever placed on a
// connection's bounded queue; the connection's own writer drains it, so a slow
// peer never holds up the others. A connection whose queue is full is treated
// as disconnected and removed.
type Dispatcher struct {
	registry *Registry
	index    *SubscriptionIndex
	logger   zerolog.Logger

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

func NewDispatcher(registry *Registry, index *SubscriptionIndex, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		index:    index,
		logger:   logger,
	}
}

// BroadcastToMatch delivers event to everyone subscribed to matchID right now
// and returns how many connections accepted it. It never fails: a match
// without subscribers is a silent no-op.
func (d *Dispatcher) BroadcastToMatch(matchID MatchID, event Event) int {
	subscribers := d.index.SubscribersOf(matchID)
	if len(subscribers) == 0 {
		return 0
	}

	event.MatchID = matchID
	frame, err := encodeEvent(event)
	if err != nil {
		d.logger.Error().Err(err).
			Str("matchId", string(matchID)).
			Str("type", string(event.Kind)).
			Msg("Failed to encode event, dropped")
		return 0
	}

	sent := 0
	for _, id := range subscribers {
		conn, ok := d.registry.Get(id)
		if !ok {
			continue
		}
		if conn.enqueue(frame) {
			sent++
			continue
		}
		d.drop(conn, matchID)
	}

	d.delivered.Add(uint64(sent))
	d.logger.Debug().
		Str("matchId", string(matchID)).
		Str("type", string(event.Kind)).
		Int("subscribers", len(subscribers)).
		Int("sent", sent).
		Msg("Broadcasted event")
	return sent
}

// SendTo places a control frame on a single connection, with the same
// overflow policy as broadcasts.
func (d *Dispatcher) SendTo(id ConnID, frame []byte) error {
	conn, ok := d.registry.Get(id)
	if !ok || !conn.Live() {
		return ErrUnknownConnection
	}
	if conn.enqueue(frame) {
		return nil
	}
	d.drop(conn, "")
	return ErrSendQueueFull
}

func (d *Dispatcher) drop(conn *Connection, matchID MatchID) {
	if !conn.Live() {
		return
	}
	if d.registry.Unregister(conn.ID()) {
		d.dropped.Add(1)
		d.logger.Warn().
			Str("connId", string(conn.ID())).
			Str("matchId", string(matchID)).
			Msg("Outbound queue full, connection dropped")
	}
}

func (d *Dispatcher) Delivered() uint64 {
	return d.delivered.Load()
}

func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}
