package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"livescore"
	"livescore/internal/api/handler/endpoints"
	"livescore/internal/api/models"
	"livescore/internal/api/service"
	"livescore/internal/realtime"
	"livescore/pkg"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	livescore.InitConfig(".env")
	cfg := livescore.GetConfig()
	gin.SetMode(gin.ReleaseMode)

	if cfg.Mode == "dev" {
		if err := livescore.DB.AutoMigrate(
			&models.Match{},
			&models.Commentary{},
		); err != nil {
			livescore.Logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
		livescore.Logger.Info().Msg("Database migrated successfully")
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router, err := graceful.Default(graceful.WithAddr(cfg.ApiPort))
	if err != nil {
		panic(err)
	}
	defer router.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	hub := realtime.NewHub(realtime.Config{
		SendBufferSize: cfg.HubConfig.SendBufferSize,
		GracePeriod:    cfg.HubConfig.GracePeriod,
	}, livescore.Logger)
	livescore.Logger.Info().Int("sendBuffer", hub.Config().SendBufferSize).Msg("WebSocket hub started")

	// With NATS configured, services publish to NATS and every hub, this one
	// included, receives through its bridge.
	var publisher realtime.Publisher = hub
	var bridge *realtime.NATSBridge
	if cfg.NatsConfig.URL != "" {
		bridge, err = realtime.NewNATSBridge(cfg.NatsConfig.URL, cfg.NatsConfig.SubjectPrefix, hub, livescore.Logger)
		if err != nil {
			livescore.Logger.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		if err = bridge.Subscribe(); err != nil {
			livescore.Logger.Fatal().Err(err).Msg("Failed to subscribe to NATS")
		}
		publisher = realtime.NewNATSPublisher(bridge.Conn(), cfg.NatsConfig.SubjectPrefix, livescore.Logger)
	}

	cache, err := pkg.NewCache(livescore.Redis, 64<<20, 10*time.Second)
	if err != nil {
		livescore.Logger.Fatal().Err(err).Msg("Failed to create match cache")
	}

	matchService := service.NewMatchService(publisher, cache)
	commentaryService := service.NewCommentaryService(matchService, publisher)

	var poller *service.MatchSyncService
	if cfg.SyncConfig.FeedURL != "" {
		poller = service.NewMatchSyncService(service.NewHTTPFixtureFeed(cfg.SyncConfig.FeedURL), matchService, cfg.SyncConfig.Interval)
		poller.Start()
	}

	endpoints.MatchHandler(router, matchService, commentaryService)
	endpoints.WebSocketHandler(router, hub)

	// The listener keeps serving until the hub has drained, so late /ws
	// upgrades get a 503 instead of a refused connection.
	serverCtx, stopServer := context.WithCancel(context.Background())
	go func() {
		<-ctx.Done()
		livescore.Logger.Info().Msg("Shutdown signal received")
		if poller != nil {
			poller.Stop()
		}
		if bridge != nil {
			bridge.Close()
		}
		shutdownHub(hub, cfg.HubConfig.GracePeriod)
		stopServer()
	}()

	livescore.Logger.Debug().Msgf("Starting CORE API on port %s", cfg.ApiPort)
	if err = router.RunWithContext(serverCtx); err != nil && !errors.Is(err, context.Canceled) {
		livescore.Logger.Fatal().Msg(err.Error())
	}

	if sqlDB, err := livescore.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	livescore.Logger.Info().Msg("Server stopped")
}

func shutdownHub(hub *realtime.Hub, grace time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), grace+5*time.Second)
	defer cancel()

	if err := hub.Shutdown(ctx, grace); err != nil {
		if errors.Is(err, realtime.ErrShutdownForced) {
			livescore.Logger.Warn().Err(err).Msg("Hub shutdown forced")
			return
		}
		livescore.Logger.Error().Err(err).Msg("Hub shutdown failed")
	}
}
