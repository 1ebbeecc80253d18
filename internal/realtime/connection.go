package realtime

import (
	"sync"
	"sync/atomic"
)

// ConnID identifies a connection for its whole lifetime. IDs are never reused.
type ConnID string

// ConnState is the lifecycle state of a Connection. It only moves forward.
type ConnState int32

const (
	StateOpen ConnState = iota
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection is one live client session. It is owned by the Registry; other
// components refer to it by ConnID only.
//
// The outbound queue is never closed: the writer stops on Done() instead, so
// a late enqueue can never panic.
type Connection struct {
	id    ConnID
	state atomic.Int32
	send  chan []byte

	closing     chan struct{}
	closingOnce sync.Once
	done        chan struct{}
	doneOnce    sync.Once

	closerMu sync.Mutex
	closer   func()
}

func newConnection(id ConnID, bufferSize int) *Connection {
	return &Connection{
		id:      id,
		send:    make(chan []byte, bufferSize),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (c *Connection) ID() ConnID {
	return c.id
}

func (c *Connection) State() ConnState {
	return ConnState(c.state.Load())
}

// Live reports whether the connection may still receive frames.
func (c *Connection) Live() bool {
	return c.State() != StateClosed
}

// Outbound is drained by the connection's single writer.
func (c *Connection) Outbound() <-chan []byte {
	return c.send
}

// Closing is closed when the hub asks the client to go away.
func (c *Connection) Closing() <-chan struct{} {
	return c.closing
}

// Done is closed once the connection reached StateClosed.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// enqueue never blocks. It returns false when the connection is closed or its
// queue is full.
func (c *Connection) enqueue(frame []byte) bool {
	if !c.Live() {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// markClosing moves Open -> Closing and signals the writer.
func (c *Connection) markClosing() bool {
	if !c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
		return false
	}
	c.closingOnce.Do(func() { close(c.closing) })
	return true
}

// setCloser installs the function that releases the transport once the
// connection is closed. It runs at most once, immediately if the connection
// is already closed. fn must not block.
func (c *Connection) setCloser(fn func()) {
	c.closerMu.Lock()
	if c.State() != StateClosed {
		c.closer = fn
		c.closerMu.Unlock()
		return
	}
	c.closerMu.Unlock()
	fn()
}

// markClosed moves any state to Closed and releases the transport. Only the
// first call returns true.
func (c *Connection) markClosed() bool {
	for {
		cur := c.state.Load()
		if ConnState(cur) == StateClosed {
			return false
		}
		if c.state.CompareAndSwap(cur, int32(StateClosed)) {
			c.closingOnce.Do(func() { close(c.closing) })
			c.doneOnce.Do(func() { close(c.done) })
			c.runCloser()
			return true
		}
	}
}

func (c *Connection) runCloser() {
	c.closerMu.Lock()
	fn := c.closer
	c.closer = nil
	c.closerMu.Unlock()
	if fn != nil {
		fn()
	}
}
