package endpoints

import (
	"net/http"

	"livescore/internal/api/handler/response"
	"livescore/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type websocketHandler struct {
	hub *realtime.Hub
}

// WebSocketHandler exposes the hub: the /ws upgrade, its stats, a
// prometheus scrape endpoint and a health probe.
func WebSocketHandler(router gin.IRouter, hub *realtime.Hub) {
	h := &websocketHandler{hub: hub}

	registry := prometheus.NewRegistry()
	registry.MustRegister(realtime.NewStatsMetrics(hub))

	router.GET("/ws", h.handleWebSocket)
	router.GET("/api/v1/ws/stats", h.getStats)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	router.GET("/health", h.health)
}

func (slf *websocketHandler) handleWebSocket(c *gin.Context) {
	realtime.ServeWS(slf.hub, c.Writer, c.Request)
}

func (slf *websocketHandler) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, slf.hub.SnapshotStats())
}

// health reports 503 once the hub stopped accepting connections so load
// balancers move traffic away during shutdown.
func (slf *websocketHandler) health(c *gin.Context) {
	stats := slf.hub.SnapshotStats()
	body := response.Health{Status: "ok", Hub: stats.State, Connections: stats.TotalConnections}
	if slf.hub.State() != realtime.Running {
		body.Status = "draining"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
