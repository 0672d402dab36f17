package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/hyperwatch/threat-monitor/internal/aggregate"
	"github.com/hyperwatch/threat-monitor/internal/api"
	"github.com/hyperwatch/threat-monitor/internal/config"
	"github.com/hyperwatch/threat-monitor/internal/drafter"
	"github.com/hyperwatch/threat-monitor/internal/escalate"
	"github.com/hyperwatch/threat-monitor/internal/logging"
	"github.com/hyperwatch/threat-monitor/internal/monitor"
	"github.com/hyperwatch/threat-monitor/internal/notify"
	"github.com/hyperwatch/threat-monitor/internal/roster"
	"github.com/hyperwatch/threat-monitor/internal/sources"
	"github.com/hyperwatch/threat-monitor/internal/tracker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	store, err := roster.NewSQLiteStore(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Feed adapters, one per enabled source
	var adapters []sources.Adapter
	if cfg.Sources.WeatherEnabled {
		adapters = append(adapters, sources.NewWeatherAdapter(cfg.Sources.WeatherURL, cfg.Sources.FetchTimeout))
	}
	if cfg.Sources.SeismicEnabled {
		adapters = append(adapters, sources.NewSeismicAdapter(cfg.Sources.SeismicURL, cfg.Sources.FetchTimeout))
	}
	if cfg.Sources.AirQualityEnabled {
		adapters = append(adapters, sources.NewAirQualityAdapter(cfg.Sources.AirQualityURL, cfg.Sources.AirNowAPIKey, cfg.Sources.FetchTimeout))
	}
	if cfg.Sources.OutageEnabled {
		adapters = append(adapters, sources.NewOutageAdapter(cfg.Sources.SyntheticOutages))
	}
	agg := aggregate.New(adapters...)

	// Notification pipeline
	dispatcher := notify.NewDispatcher(
		notify.NewEmailTransport(cfg.Notify.ResendAPIKey, cfg.Notify.EmailFrom),
		notify.NewSMSTransport(cfg.Notify.TwilioSID, cfg.Notify.TwilioAuthToken, cfg.Notify.SMSFrom),
	)
	draftSvc := drafter.NewService(drafter.NewHTTPRemote(cfg.Drafter.Endpoint, cfg.Drafter.APIKey, cfg.Drafter.Timeout))

	// Critical episode tracking and auto-escalation
	coordinator := escalate.New(tracker.New(), draftSvc, dispatcher, store, cfg.Monitor.AutoEscalate)

	// Background poll loop for the home region
	broadcaster := monitor.NewBroadcaster()
	mon := monitor.New(agg, coordinator, broadcaster, cfg.Monitor.HomeRegion, cfg.Monitor.PollInterval)
	mon.Start(ctx)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateRPS, cfg.Server.RateBurst))

	handler := api.NewHandler(agg, store, draftSvc, dispatcher, coordinator, mon, cfg.Monitor.HomeRegion)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mon.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
