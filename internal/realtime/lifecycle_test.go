package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cooperate closes each connection as soon as the hub asks it to.
func cooperate(hub *Hub, conns ...*Connection) {
	for _, conn := range conns {
		go func(c *Connection) {
			<-c.Closing()
			hub.Unregister(c.ID())
		}(conn)
	}
}

func TestLifecycle_CooperativeClientsStopEarly(t *testing.T) {
	hub := newTestHub(t, 8)
	conns := []*Connection{mustRegister(t, hub), mustRegister(t, hub), mustRegister(t, hub)}
	for _, conn := range conns {
		hub.Subscribe(conn.ID(), "101")
	}
	cooperate(hub, conns...)

	start := time.Now()
	err := hub.Shutdown(context.Background(), 5*time.Second)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second, "should not wait for the full grace period")
	assert.Equal(t, Stopped, hub.State())
	assert.Equal(t, 0, hub.SnapshotStats().TotalConnections)
	assert.Empty(t, hub.SnapshotStats().Subscriptions)
}

func TestLifecycle_UncooperativeClientsAreForceClosed(t *testing.T) {
	hub := newTestHub(t, 8)
	conns := []*Connection{mustRegister(t, hub), mustRegister(t, hub)}

	grace := 100 * time.Millisecond
	start := time.Now()
	err := hub.Shutdown(context.Background(), grace)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrShutdownForced)
	assert.GreaterOrEqual(t, elapsed, grace)
	assert.Less(t, elapsed, grace+time.Second)

	assert.Equal(t, Stopped, hub.State())
	assert.Equal(t, 0, hub.SnapshotStats().TotalConnections)
	for _, conn := range conns {
		assert.Equal(t, StateClosed, conn.State())
		select {
		case <-conn.Done():
		default:
			t.Fatalf("connection %s still running", conn.ID())
		}
	}
}

func TestLifecycle_NotifiesOpenConnections(t *testing.T) {
	hub := newTestHub(t, 8)
	conn := mustRegister(t, hub)

	done := make(chan error, 1)
	go func() { done <- hub.Shutdown(context.Background(), time.Second) }()

	select {
	case <-conn.Closing():
	case <-time.After(time.Second):
		t.Fatal("connection was not asked to close")
	}
	assert.Equal(t, Draining, hub.State())
	assert.Equal(t, StateClosing, conn.State())
	assert.False(t, hub.Subscribe(conn.ID(), "101"), "no new subscriptions while draining")

	hub.Unregister(conn.ID())
	require.NoError(t, <-done)
}

func TestLifecycle_RejectsRegistrationAfterShutdown(t *testing.T) {
	hub := newTestHub(t, 8)
	require.NoError(t, hub.Shutdown(context.Background(), time.Second))

	_, err := hub.Register()
	assert.ErrorIs(t, err, ErrHubClosed)
	assert.Equal(t, Stopped, hub.State())
}

func TestLifecycle_ContextCancelForcesTermination(t *testing.T) {
	hub := newTestHub(t, 8)
	conn := mustRegister(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := hub.Shutdown(ctx, time.Hour)
	assert.ErrorIs(t, err, ErrShutdownForced)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StateClosed, conn.State())
}

func TestLifecycle_ConcurrentShutdownCallsWait(t *testing.T) {
	hub := newTestHub(t, 8)
	conn := mustRegister(t, hub)

	var wg sync.WaitGroup
	results := make([]error, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = hub.Shutdown(context.Background(), 50*time.Millisecond)
		}(i)
	}
	wg.Wait()

	forced := 0
	for _, err := range results {
		if err != nil {
			assert.ErrorIs(t, err, ErrShutdownForced)
			forced++
		}
	}
	assert.Equal(t, 1, forced, "only the draining call reports the forced close")
	assert.Equal(t, StateClosed, conn.State())

	select {
	case <-hub.Stopped():
	default:
		t.Fatal("Stopped should be closed")
	}
}

func TestLifecycle_BroadcastStillReachesDrainingConnections(t *testing.T) {
	hub := newTestHub(t, 8)
	conn := mustRegister(t, hub)
	hub.Subscribe(conn.ID(), "101")

	go hub.Shutdown(context.Background(), time.Second)
	<-conn.Closing()

	assert.Equal(t, 1, hub.Publish("101", EventStatusUpdate, map[string]string{"status": "finished"}))
	readEvent(t, conn)
	hub.Unregister(conn.ID())
	<-hub.Stopped()
}
