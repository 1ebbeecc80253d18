package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"livescore"
	"livescore/internal/api/handler/endpoints"
	"livescore/internal/realtime"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

// Standalone hub: serves /ws and stats, fed only by NATS.
func main() {
	livescore.InitLogger(".env")
	cfg := livescore.GetConfig()
	gin.SetMode(gin.ReleaseMode)

	if cfg.NatsConfig.URL == "" {
		livescore.Logger.Fatal().Msg("NATS_URL is required")
	}

	hub := realtime.NewHub(realtime.Config{
		SendBufferSize: cfg.HubConfig.SendBufferSize,
		GracePeriod:    cfg.HubConfig.GracePeriod,
	}, livescore.Logger)

	bridge, err := realtime.NewNATSBridge(cfg.NatsConfig.URL, cfg.NatsConfig.SubjectPrefix, hub, livescore.Logger)
	if err != nil {
		livescore.Logger.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	if err = bridge.Subscribe(); err != nil {
		livescore.Logger.Fatal().Err(err).Msg("Failed to subscribe to NATS")
	}

	router, err := graceful.Default(graceful.WithAddr(cfg.RealtimePort))
	if err != nil {
		panic(err)
	}
	defer router.Close()
	endpoints.WebSocketHandler(router, hub)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverCtx, stopServer := context.WithCancel(context.Background())
	go func() {
		<-ctx.Done()
		bridge.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HubConfig.GracePeriod+5*time.Second)
		defer cancel()
		if err := hub.Shutdown(shutdownCtx, cfg.HubConfig.GracePeriod); err != nil {
			livescore.Logger.Warn().Err(err).Msg("Hub shutdown forced")
		}
		stopServer()
	}()

	livescore.Logger.Info().Str("port", cfg.RealtimePort).Msg("Realtime service listening")
	if err = router.RunWithContext(serverCtx); err != nil && !errors.Is(err, context.Canceled) {
		livescore.Logger.Fatal().Err(err).Msg("Realtime server failed")
	}
}
