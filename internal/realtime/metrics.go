package realtime

import "github.com/prometheus/client_golang/prometheus"

// StatsSource is anything that can produce a hub snapshot.
type StatsSource interface {
	SnapshotStats() Stats
}

// StatsMetrics exports hub snapshots as prometheus metrics. Values are read
// at scrape time, so nothing is kept in sync with the hub.
type StatsMetrics struct {
	source StatsSource

	connections   *prometheus.Desc
	subscriptions *prometheus.Desc
	matches       *prometheus.Desc
	delivered     *prometheus.Desc
	dropped       *prometheus.Desc
	uptime        *prometheus.Desc
}

var _ prometheus.Collector = (*StatsMetrics)(nil)

func NewStatsMetrics(source StatsSource) *StatsMetrics {
	return &StatsMetrics{
		source:        source,
		connections:   prometheus.NewDesc("livescore_hub_connections", "Open websocket connections.", nil, nil),
		subscriptions: prometheus.NewDesc("livescore_hub_subscriptions", "Subscriptions across all matches.", nil, nil),
		matches:       prometheus.NewDesc("livescore_hub_matches", "Matches with at least one subscriber.", nil, nil),
		delivered:     prometheus.NewDesc("livescore_hub_frames_delivered_total", "Frames queued to connections.", nil, nil),
		dropped:       prometheus.NewDesc("livescore_hub_connections_dropped_total", "Connections dropped for overflowing their queue.", nil, nil),
		uptime:        prometheus.NewDesc("livescore_hub_uptime_seconds", "Seconds since the hub started.", nil, nil),
	}
}

func (m *StatsMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.connections
	ch <- m.subscriptions
	ch <- m.matches
	ch <- m.delivered
	ch <- m.dropped
	ch <- m.uptime
}

func (m *StatsMetrics) Collect(ch chan<- prometheus.Metric) {
	stats := m.source.SnapshotStats()

	total := 0
	for _, n := range stats.Subscriptions {
		total += n
	}

	ch <- prometheus.MustNewConstMetric(m.connections, prometheus.GaugeValue, float64(stats.TotalConnections))
	ch <- prometheus.MustNewConstMetric(m.subscriptions, prometheus.GaugeValue, float64(total))
	ch <- prometheus.MustNewConstMetric(m.matches, prometheus.GaugeValue, float64(len(stats.Subscriptions)))
	ch <- prometheus.MustNewConstMetric(m.delivered, prometheus.CounterValue, float64(stats.Delivered))
	ch <- prometheus.MustNewConstMetric(m.dropped, prometheus.CounterValue, float64(stats.Dropped))
	ch <- prometheus.MustNewConstMetric(m.uptime, prometheus.GaugeValue, stats.UptimeSeconds)
}
