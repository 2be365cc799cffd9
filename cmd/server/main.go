package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/swytch/backend/config"
	httpDelivery "github.com/swytch/backend/internal/delivery/http"
	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/backendapi"
	"github.com/swytch/backend/internal/infrastructure/bus"
	"github.com/swytch/backend/internal/infrastructure/store"
	"github.com/swytch/backend/internal/infrastructure/stub"
	"github.com/swytch/backend/internal/platform/logger"
	"github.com/swytch/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	logg.Info("starting swytch backend",
		"version", "1.0.0",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"store", cfg.Store.Type,
		"provider", cfg.Analysis.Provider)

	ctx := context.Background()

	// Initialize the key-value store backing all persisted state
	kv, err := buildStore(ctx, cfg)
	if err != nil {
		logg.Fatal("failed to initialize store", "error", err)
	}

	// Event fan-out between the pipeline and connected clients
	events := bus.New(logg)

	// Vision and search capabilities, stubbed or remote per config
	vision, search := buildProviders(cfg, logg)

	// Usecase layer
	history := usecase.NewHistoryService(kv, events, logg)
	tracker := usecase.NewViewTrackerService(kv, logg, usecase.TrackerConfig{
		Retention:        cfg.Tracker.Retention,
		WarningThreshold: cfg.Tracker.WarningThreshold,
	})
	assembler := usecase.NewAssembler(rand.New(rand.NewSource(time.Now().UnixNano())))
	analysis := usecase.NewAnalysisService(vision, search, kv, events, history, assembler, logg, usecase.AnalysisConfig{
		StageTimeout:    cfg.Analysis.StageTimeout,
		MaxAlternatives: cfg.Analysis.MaxAlternatives,
	})
	if err := analysis.Restore(ctx); err != nil {
		logg.Warn("failed to restore preferences, using defaults", "error", err)
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(analysis, tracker, history, events, logg)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logg.Info("server listening", "addr", addr)

	if err := router.Run(addr); err != nil {
		logg.Fatal("failed to start server", "error", err)
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (domain.Store, error) {
	switch cfg.Store.Type {
	case "file":
		return store.NewFileStore(cfg.Store.FilePath)
	case "redis":
		return store.NewRedisStore(ctx, cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB, cfg.Store.RedisPrefix)
	default:
		return store.NewMemoryStore(), nil
	}
}

func buildProviders(cfg *config.Config, logg *logger.Logger) (domain.VisionService, domain.SearchService) {
	if cfg.Analysis.Provider == "backend" {
		client := backendapi.NewClient(cfg.Backend.BaseURL, cfg.Backend.AuthToken, logg)
		return client, client
	}

	seed := time.Now().UnixNano()
	return stub.NewVisionService(rand.New(rand.NewSource(seed))),
		stub.NewSearchService(rand.New(rand.NewSource(seed + 1)))
}
