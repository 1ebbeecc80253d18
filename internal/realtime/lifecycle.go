package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrShutdownForced is returned when connections were still open at the end
// of the grace period and had to be closed by the hub.
var ErrShutdownForced = errors.New("shutdown grace period exceeded")

// LifecycleState is Running -> Draining -> Stopped. Stopped is terminal.
type LifecycleState int32

const (
	Running LifecycleState = iota
	Draining
	Stopped
)

func (s LifecycleState) String() string {
	switch s {
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Lifecycle drains the registry on shutdown.
type Lifecycle struct {
	state    atomic.Int32
	registry *Registry
	stopped  chan struct{}
	logger   zerolog.Logger
}

func NewLifecycle(registry *Registry, logger zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		registry: registry,
		stopped:  make(chan struct{}),
		logger:   logger,
	}
}

func (l *Lifecycle) State() LifecycleState {
	return LifecycleState(l.state.Load())
}

// Stopped is closed when the hub reached its terminal state.
func (l *Lifecycle) Stopped() <-chan struct{} {
	return l.stopped
}

// Shutdown stops new registrations, asks every open connection to close and
// waits up to grace for them to go. Whatever is left afterwards, or when ctx
// ends first, is closed by force. Only the first call drains; later calls wait
// for it to finish.
func (l *Lifecycle) Shutdown(ctx context.Context, grace time.Duration) error {
	if !l.state.CompareAndSwap(int32(Running), int32(Draining)) {
		select {
		case <-l.stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	l.registry.StopAccepting()

	conns := l.registry.Connections()
	for _, conn := range conns {
		conn.markClosing()
	}
	l.logger.Info().
		Int("connections", len(conns)).
		Dur("grace", grace).
		Msg("Hub draining")

	var timeout <-chan time.Time
	if grace > 0 {
		timer := time.NewTimer(grace)
		defer timer.Stop()
		timeout = timer.C
	} else {
		expired := make(chan time.Time)
		close(expired)
		timeout = expired
	}

	var err error
	select {
	case <-l.registry.Empty():
	case <-timeout:
		err = l.forceClose("grace period elapsed")
	case <-ctx.Done():
		err = l.forceClose("shutdown context done")
	}

	l.state.Store(int32(Stopped))
	close(l.stopped)
	l.logger.Info().Msg("Hub stopped")
	return err
}

func (l *Lifecycle) forceClose(reason string) error {
	n := 0
	for _, conn := range l.registry.Connections() {
		if l.registry.Unregister(conn.ID()) {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	l.logger.Warn().
		Int("connections", n).
		Str("reason", reason).
		Msg("Force-closed remaining connections")
	return fmt.Errorf("%w: %d connections force-closed", ErrShutdownForced, n)
}
