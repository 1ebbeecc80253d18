package realtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultSubjectPrefix is the subject root used when none is configured.
const DefaultSubjectPrefix = "livescore"

// MatchSubject is the subject an event for matchID travels on:
// "<prefix>.match.<matchId>.<kind>".
func MatchSubject(prefix string, matchID MatchID, kind EventKind) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return fmt.Sprintf("%s.match.%s.%s", prefix, matchID, kind)
}

// parseMatchSubject extracts the match and kind from a subject built by
// MatchSubject.
func parseMatchSubject(prefix, subject string) (MatchID, EventKind, error) {
	rest, ok := strings.CutPrefix(subject, prefix+".match.")
	if !ok {
		return "", "", fmt.Errorf("subject %q is outside %q", subject, prefix)
	}
	parts := strings.Split(rest, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", "", fmt.Errorf("expected <matchId>.<kind>, got %q", rest)
	}
	kind := EventKind(parts[1])
	if !kind.Valid() {
		return "", "", fmt.Errorf("unknown event kind %q", parts[1])
	}
	return MatchID(parts[0]), kind, nil
}

// NATSBridge subscribes to match subjects and pushes every message into a
// Publisher, so producers in other processes can reach this hub.
type NATSBridge struct {
	conn      *nats.Conn
	sub       *nats.Subscription
	publisher Publisher
	prefix    string
	logger    zerolog.Logger
}

func NewNATSBridge(natsURL, prefix string, publisher Publisher, logger zerolog.Logger) (*NATSBridge, error) {
	nc, err := nats.Connect(natsURL, nats.Name("livescore-hub"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSBridge{
		conn:      nc,
		publisher: publisher,
		prefix:    prefix,
		logger:    logger.With().Str("component", "nats-bridge").Logger(),
	}, nil
}

// Subscribe listens on <prefix>.match.*.*
func (b *NATSBridge) Subscribe() error {
	subject := b.prefix + ".match.*.*"
	sub, err := b.conn.Subscribe(subject, b.handle)
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", subject, err)
	}
	b.sub = sub
	b.logger.Info().Str("subject", subject).Msg("NATS bridge subscribed")
	return nil
}

func (b *NATSBridge) handle(msg *nats.Msg) {
	matchID, kind, err := parseMatchSubject(b.prefix, msg.Subject)
	if err != nil {
		b.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("Bad subject, skipped")
		return
	}
	if !json.Valid(msg.Data) {
		b.logger.Warn().Str("subject", msg.Subject).Msg("Payload is not JSON, skipped")
		return
	}
	b.publisher.Publish(matchID, kind, json.RawMessage(msg.Data))
}

// Conn exposes the underlying connection so a NATSPublisher can share it.
func (b *NATSBridge) Conn() *nats.Conn {
	return b.conn
}

// Close drains the subscription and the connection.
func (b *NATSBridge) Close() {
	if err := b.conn.Drain(); err != nil {
		b.logger.Error().Err(err).Msg("NATS drain failed")
	}
}

// NATSPublisher publishes events to NATS instead of a local hub. It lets the
// REST process and a standalone realtime process run separately.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

var _ Publisher = (*NATSPublisher)(nil)

func NewNATSPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}
}

// Publish returns 1 when the message was handed to NATS, 0 otherwise.
func (p *NATSPublisher) Publish(matchID MatchID, kind EventKind, payload any) int {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error().Err(err).Str("matchId", string(matchID)).Msg("Failed to encode payload")
		return 0
	}
	if err := p.conn.Publish(MatchSubject(p.prefix, matchID, kind), data); err != nil {
		p.logger.Error().Err(err).Str("matchId", string(matchID)).Msg("NATS publish failed")
		return 0
	}
	return 1
}
