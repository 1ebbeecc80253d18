package realtime

import "time"

// Stats is a point-in-time view of the hub.
type Stats struct {
	TotalConnections int             `json:"totalConnections"`
	Subscriptions    map[MatchID]int `json:"matches"`
	Uptime           time.Duration   `json:"-"`
	UptimeSeconds    float64         `json:"uptimeSeconds"`
	State            string          `json:"state"`
	Delivered        uint64          `json:"delivered"`
	Dropped          uint64          `json:"dropped"`
}

// StatsCollector derives Stats from the registry and index. It takes each
// component's read lock only for the copy it needs.
type StatsCollector struct {
	registry   *Registry
	index      *SubscriptionIndex
	dispatcher *Dispatcher
	lifecycle  *Lifecycle
	startedAt  time.Time
	now        func() time.Time
}

func NewStatsCollector(registry *Registry, index *SubscriptionIndex, dispatcher *Dispatcher, lifecycle *Lifecycle) *StatsCollector {
	return &StatsCollector{
		registry:   registry,
		index:      index,
		dispatcher: dispatcher,
		lifecycle:  lifecycle,
		startedAt:  time.Now(),
		now:        time.Now,
	}
}

func (s *StatsCollector) GetStats() Stats {
	uptime := s.now().Sub(s.startedAt)
	stats := Stats{
		TotalConnections: s.registry.Len(),
		Subscriptions:    s.index.Counts(),
		Uptime:           uptime,
		UptimeSeconds:    uptime.Seconds(),
	}
	if s.dispatcher != nil {
		stats.Delivered = s.dispatcher.Delivered()
		stats.Dropped = s.dispatcher.Dropped()
	}
	if s.lifecycle != nil {
		stats.State = s.lifecycle.State().String()
	}
	return stats
}
