package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apeBeacon/app/echo-server/router"
	"apeBeacon/business/admin"
	"apeBeacon/business/beacon"
	"apeBeacon/business/content"
	mqttRepo "apeBeacon/internal/repository/mqtt"
	"apeBeacon/internal/rest"
	"apeBeacon/pkg/config"
	"apeBeacon/pkg/logger"
	"apeBeacon/pkg/metrics"
	"apeBeacon/static"

	"github.com/go-playground/validator/v10"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting APE beacon", "version", cfg.App.Version)

	metrics.Init()

	store, err := openStorage(cfg)
	if err != nil {
		logger.Fatal("Failed to open storage", "error", err)
	}
	defer store.Close()

	// Init validate
	validate := validator.New()

	// Init content selector
	var selector beacon.ContentSelector = content.NewStaticCatalog()
	if cfg.Beacon.ContentSelector == config.SelectorRanked {
		selector = content.NewRankedSelector(store.content, content.NoopEligibilityChecker{}, content.Weights{
			Offline: cfg.Beacon.WeightOffline,
			Visitor: cfg.Beacon.WeightVisitor,
		})
	}
	logger.Info("Content selector ready", "selector", cfg.Beacon.ContentSelector)

	// Init service
	beaconService := beacon.NewBeaconService(store.customers, store.visitors, selector, validate)
	if cfg.MQTT.BrokerURL != "" {
		client, err := mqttRepo.Connect(cfg.MQTT.BrokerURL, cfg.MQTT.ClientID)
		if err != nil {
			logger.Fatal("Failed to connect to MQTT broker", "error", err)
		}
		defer client.Disconnect(250)
		beaconService.WithPublisher(mqttRepo.NewEventPublisher(client, cfg.MQTT.TopicPrefix))
	}

	adminService := admin.NewAdminService(store.customers, store.content, admin.Credentials{
		Username:     cfg.Admin.Username,
		PasswordHash: cfg.Admin.PasswordHash,
		JWTSecret:    cfg.JWT.SecretKey,
		TokenTTL:     cfg.JWT.TTL,
	})

	// Init handler
	normalizer := beacon.NewNormalizer(cfg.Beacon.DefaultCallback, cfg.Beacon.PlaceholderPrefix)
	e := router.NewEcho(router.Handlers{
		Beacon:    rest.NewBeaconHandler(beaconService, normalizer, cfg.Server.RequestTimeout),
		Assets:    rest.NewAssetHandler(static.ApeJS),
		Admin:     rest.NewAdminHandler(adminService),
		Callbacks: normalizer,
		JWTSecret: cfg.JWT.SecretKey,
	})

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
