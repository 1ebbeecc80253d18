package realtime

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Publisher is the entry point collaborators use to push match events.
type Publisher interface {
	Publish(matchID MatchID, kind EventKind, payload any) int
}

// Hub ties the registry, subscription index, dispatcher, stats and lifecycle
// together. It is constructed explicitly and passed to whoever needs it.
type Hub struct {
	cfg        Config
	registry   *Registry
	index      *SubscriptionIndex
	dispatcher *Dispatcher
	stats      *StatsCollector
	lifecycle  *Lifecycle
	logger     zerolog.Logger
}

var _ Publisher = (*Hub)(nil)

func NewHub(cfg Config, logger zerolog.Logger) *Hub {
	cfg = cfg.withDefaults()
	logger = logger.With().Str("component", "hub").Logger()

	h := &Hub{cfg: cfg, logger: logger}
	h.registry = NewRegistry(cfg.SendBufferSize, h.purge, logger)
	h.index = NewSubscriptionIndex(h.registry.IsOpen, logger)
	h.dispatcher = NewDispatcher(h.registry, h.index, logger)
	h.lifecycle = NewLifecycle(h.registry, logger)
	h.stats = NewStatsCollector(h.registry, h.index, h.dispatcher, h.lifecycle)
	return h
}

func (h *Hub) Config() Config {
	return h.cfg
}

// Register admits a new connection, or fails with ErrHubClosed once the hub
// is draining.
func (h *Hub) Register() (*Connection, error) {
	return h.registry.Register()
}

// Unregister closes and forgets a connection. Safe to call more than once.
func (h *Hub) Unregister(id ConnID) {
	h.registry.Unregister(id)
}

func (h *Hub) IsOpen(id ConnID) bool {
	return h.registry.IsOpen(id)
}

func (h *Hub) Subscribe(id ConnID, matchID MatchID) bool {
	return h.index.Subscribe(id, matchID)
}

func (h *Hub) Unsubscribe(id ConnID, matchID MatchID) bool {
	return h.index.Unsubscribe(id, matchID)
}

// SubscriptionsOf lists the matches a connection currently follows.
func (h *Hub) SubscriptionsOf(id ConnID) []MatchID {
	return h.index.MatchesOf(id)
}

// Publish broadcasts payload as a kind event to matchID's subscribers and
// returns the number of connections it was queued for. Publishing never
// fails; unknown kinds are logged and ignored.
func (h *Hub) Publish(matchID MatchID, kind EventKind, payload any) int {
	if !kind.Valid() {
		h.logger.Warn().
			Str("matchId", string(matchID)).
			Str("type", string(kind)).
			Msg("Unknown event kind, not published")
		return 0
	}
	return h.dispatcher.BroadcastToMatch(matchID, Event{Kind: kind, MatchID: matchID, Payload: payload})
}

// send queues a control frame for a single connection. It fails with
// ErrUnknownConnection once id left the registry.
func (h *Hub) send(id ConnID, frame []byte) error {
	return h.dispatcher.SendTo(id, frame)
}

func (h *Hub) SnapshotStats() Stats {
	return h.stats.GetStats()
}

func (h *Hub) State() LifecycleState {
	return h.lifecycle.State()
}

func (h *Hub) Stopped() <-chan struct{} {
	return h.lifecycle.Stopped()
}

// Shutdown drains the hub. A zero grace uses Config.GracePeriod. The hub
// cannot be restarted afterwards.
func (h *Hub) Shutdown(ctx context.Context, grace time.Duration) error {
	if grace <= 0 {
		grace = h.cfg.GracePeriod
	}
	return h.lifecycle.Shutdown(ctx, grace)
}

func (h *Hub) purge(id ConnID) {
	if n := h.index.Purge(id); n > 0 {
		h.logger.Debug().
			Str("connId", string(id)).
			Int("subscriptions", n).
			Msg("Purged subscriptions")
	}
}
