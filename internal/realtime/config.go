package realtime

import "time"

const (
	defaultSendBufferSize = 256
	defaultGracePeriod    = 10 * time.Second
	defaultWriteWait      = 10 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultMaxMessageSize = 4096
)

// Config tunes the hub and its websocket transport.
type Config struct {
	// SendBufferSize bounds each connection's outbound queue.
	SendBufferSize int

	// GracePeriod is used by Shutdown when the caller passes zero.
	GracePeriod time.Duration

	// Time allowed to write a frame to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong from the peer
	PongWait time.Duration

	// Maximum inbound message size
	MaxMessageSize int64
}

func DefaultConfig() Config {
	return Config{
		SendBufferSize: defaultSendBufferSize,
		GracePeriod:    defaultGracePeriod,
		WriteWait:      defaultWriteWait,
		PongWait:       defaultPongWait,
		MaxMessageSize: defaultMaxMessageSize,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = d.SendBufferSize
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = d.GracePeriod
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	return c
}

// pingPeriod must stay below PongWait.
func (c Config) pingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}
