package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/kingdomapps/concierge/internal/catalog"
	"github.com/kingdomapps/concierge/internal/config"
	"github.com/kingdomapps/concierge/internal/httpapi"
	"github.com/kingdomapps/concierge/internal/memory"
	"github.com/kingdomapps/concierge/internal/observability"
	"github.com/kingdomapps/concierge/internal/respond"
)

func main() {
	// Local runs keep their settings in a .env file; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("config error")
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	backend, err := memory.NewBackend(ctx, cfg.RedisURL, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage backend init failed")
	}
	defer backend.Close()

	switch {
	case cfg.RedisURL != "":
		logger.Info().Msg("session backend: redis")
	case cfg.DatabaseURL != "":
		logger.Info().Msg("session backend: postgres")
	default:
		logger.Info().Msg("session backend: in-memory (sessions do not survive restarts)")
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("catalog load failed")
	}
	logger.Info().Int("apps", len(cat.Apps())).Msg("catalog loaded")

	store := memory.NewStore(backend, memory.StoreOptions{
		Namespace:    cfg.KeyNamespace,
		TTL:          cfg.SessionTTL,
		HistoryLimit: cfg.HistoryLimit,
	}, logger, metrics)

	generator := respond.NewGenerator(store, cat, logger, metrics)
	api := httpapi.New(cfg, store, generator, metrics, logger)

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	store.StartJanitor(runCtx, cfg.JanitorInterval)

	go func() {
		logger.Info().Str("addr", cfg.BindAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}

	logger.Info().Msg("shutdown complete")
}
