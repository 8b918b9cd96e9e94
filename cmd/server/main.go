package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reglens/internal/inference"
	"reglens/internal/platform/config"
	"reglens/internal/platform/events"
	"reglens/internal/platform/health"
	"reglens/internal/platform/httpserver"
	"reglens/internal/platform/logger"
	platformMetrics "reglens/internal/platform/metrics"
	"reglens/internal/platform/postgres"
	"reglens/internal/platform/redis"
	"reglens/internal/substance/enrich"
	"reglens/internal/substance/handler"
	substanceMetrics "reglens/internal/substance/metrics"
	"reglens/internal/substance/resolver"
	"reglens/internal/substance/service"
	"reglens/internal/substance/store"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in internal/substance.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	pool, err := postgres.New(postgres.DefaultConfig(cfg.PostgresURL))
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// Postgres is the durable store of choice; Redis is the lighter
	// alternative; both absent means ephemeral in-memory records.
	var statusStore store.StatusStore
	switch {
	case pool != nil:
		statusStore = store.NewPostgres(pool.DB())
		log.Info("using postgres status store")
	case redisClient != nil:
		statusStore = store.NewRedis(redisClient.Client, cfg.RedisCacheTTL)
		log.Info("using redis status store", "ttl", cfg.RedisCacheTTL)
	default:
		statusStore = store.NewInMemory()
		log.Warn("no store configured, using in-memory status store")
	}

	publisher, err := events.NewPublisher(cfg.KafkaBrokers, log)
	if err != nil {
		log.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}

	pipelineMetrics := substanceMetrics.New()
	httpMetrics := platformMetrics.New()

	client := inference.New(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderTimeout, log)
	substanceResolver := resolver.New(client, cfg.ResolverModel, log, pipelineMetrics)
	enricher := enrich.New(client, cfg.EnricherModel, log, pipelineMetrics)

	svc, err := service.New(substanceResolver, enricher, statusStore, cfg.Jurisdictions, log,
		service.WithMetrics(pipelineMetrics),
		service.WithEvents(publisher),
		service.WithRefreshLimit(cfg.RefreshConcurrency),
	)
	if err != nil {
		log.Error("failed to build substance service", "error", err)
		os.Exit(1)
	}

	healthHandler := health.New()
	if pool != nil {
		healthHandler.RegisterCheck("postgres", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(ctx)
		})
	}

	router := chi.NewRouter()
	healthHandler.Register(router)
	router.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log, httpMetrics, cfg.ProviderTimeout+30*time.Second).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting reglens",
		"addr", cfg.Addr,
		"jurisdictions", len(cfg.Jurisdictions),
		"resolver_model", cfg.ResolverModel,
		"enricher_model", cfg.EnricherModel,
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if publisher != nil {
		publisher.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
}
