package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrHubClosed is returned by Register once the hub started draining.
	ErrHubClosed = errors.New("hub is not accepting connections")

	// ErrUnknownConnection is returned when sending to an id that is not
	// registered.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrSendQueueFull is returned when a send overflowed the connection's
	// queue. The connection has been dropped.
	ErrSendQueueFull = errors.New("send queue full")
)

// Registry owns every live Connection and is the only place connections are
// added or removed.
type Registry struct {
	mu        sync.RWMutex
	conns     map[ConnID]*Connection
	accepting bool
	empty     chan struct{}

	bufferSize int
	onRemove   func(ConnID)
	logger     zerolog.Logger
}

// NewRegistry creates a registry whose connections get a queue of bufferSize
// frames. onRemove runs once per connection, after it left the registry.
func NewRegistry(bufferSize int, onRemove func(ConnID), logger zerolog.Logger) *Registry {
	if bufferSize <= 0 {
		bufferSize = defaultSendBufferSize
	}
	return &Registry{
		conns:      make(map[ConnID]*Connection),
		accepting:  true,
		empty:      make(chan struct{}),
		bufferSize: bufferSize,
		onRemove:   onRemove,
		logger:     logger,
	}
}

// Register creates an Open connection with a fresh identifier.
func (r *Registry) Register() (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.accepting {
		return nil, ErrHubClosed
	}

	id := ConnID(uuid.NewString())
	for {
		if _, taken := r.conns[id]; !taken {
			break
		}
		id = ConnID(uuid.NewString())
	}

	conn := newConnection(id, r.bufferSize)
	r.conns[id] = conn

	r.logger.Debug().
		Str("connId", string(id)).
		Int("totalConnections", len(r.conns)).
		Msg("Connection registered")
	return conn, nil
}

// Unregister closes the connection and purges its subscriptions. Unknown or
// already removed ids are a no-op; it reports whether this call removed it.
func (r *Registry) Unregister(id ConnID) bool {
	r.mu.Lock()
	conn, ok := r.conns[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, id)
	conn.markClosed()
	remaining := len(r.conns)
	if !r.accepting && remaining == 0 {
		r.signalEmpty()
	}
	r.mu.Unlock()

	if r.onRemove != nil {
		r.onRemove(id)
	}

	r.logger.Debug().
		Str("connId", string(id)).
		Int("totalConnections", remaining).
		Msg("Connection unregistered")
	return true
}

// IsOpen reports whether id is registered and still in StateOpen.
func (r *Registry) IsOpen(id ConnID) bool {
	r.mu.RLock()
	conn, ok := r.conns[id]
	r.mu.RUnlock()
	return ok && conn.State() == StateOpen
}

func (r *Registry) Get(id ConnID) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Connections returns a point-in-time copy of the registered connections.
func (r *Registry) Connections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}

// StopAccepting makes every later Register fail with ErrHubClosed.
func (r *Registry) StopAccepting() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.accepting {
		return
	}
	r.accepting = false
	if len(r.conns) == 0 {
		r.signalEmpty()
	}
}

// Empty is closed once the registry stopped accepting and holds no connection.
func (r *Registry) Empty() <-chan struct{} {
	return r.empty
}

// caller holds r.mu
func (r *Registry) signalEmpty() {
	select {
	case <-r.empty:
	default:
		close(r.empty)
	}
}
