// Command server starts the content similarity HTTP service.
//
// The service serves catalog CRUD under /api/v1/records, similarity lookups
// at /api/v1/records/{id}/similar and /api/v1/search, and rebuilds its TF-IDF
// index whenever the catalog changes. Catalog change events arrive over Kafka
// and are debounced into a single rebuild; rankings are cached in Redis.
//
// Usage:
//
//	go run ./cmd/server [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mediasearch/similarity-service/internal/analytics"
	"github.com/mediasearch/similarity-service/internal/api"
	"github.com/mediasearch/similarity-service/internal/cache"
	"github.com/mediasearch/similarity-service/internal/catalog"
	"github.com/mediasearch/similarity-service/internal/engine"
	"github.com/mediasearch/similarity-service/internal/engine/vectorizer"
	"github.com/mediasearch/similarity-service/internal/rebuilder"
	"github.com/mediasearch/similarity-service/pkg/config"
	"github.com/mediasearch/similarity-service/pkg/health"
	"github.com/mediasearch/similarity-service/pkg/kafka"
	"github.com/mediasearch/similarity-service/pkg/logger"
	"github.com/mediasearch/similarity-service/pkg/metrics"
	"github.com/mediasearch/similarity-service/pkg/middleware"
	"github.com/mediasearch/similarity-service/pkg/postgres"
	pkgredis "github.com/mediasearch/similarity-service/pkg/redis"
	"github.com/mediasearch/similarity-service/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting similarity service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *postgres.Client
	err = resilience.Retry(ctx, "postgres-connect", resilience.RetryConfig{}, func() error {
		var connErr error
		db, connErr = postgres.New(cfg.Postgres)
		return connErr
	})
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("postgres connected", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)

	store := catalog.NewStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure catalog schema", "error", err)
		os.Exit(1)
	}

	eng := engine.New(vectorizer.Options{GenreWeight: cfg.Engine.GenreWeight})

	var resultCache *cache.ResultCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, result caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		resultCache = cache.New(redisClient, cfg.Redis)
		slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	m := metrics.New()

	var invalidator rebuilder.Invalidator
	if resultCache != nil {
		invalidator = resultCache
	}
	reb := rebuilder.New(store, eng, invalidator, m, cfg.Rebuild)
	if err := reb.RebuildNow(ctx, "startup"); err != nil {
		slog.Error("initial index build failed", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := reb.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("rebuilder stopped", "error", err)
		}
	}()

	changeConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CatalogEvents, rebuilder.HandleChangeEvent(reb))
	go func() {
		if err := changeConsumer.Start(ctx); err != nil && ctx.Err() == nil {
			slog.Error("catalog event consumer stopped", "error", err)
		}
	}()
	slog.Info("catalog event consumer started", "topic", cfg.Kafka.Topics.CatalogEvents)

	changeProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CatalogEvents)
	defer changeProducer.Close()
	events := api.NewEventPublisher(changeProducer)

	analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
	collector := analytics.NewCollector(analyticsProducer, 10000)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.QueryEvents)

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := db.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if !eng.Ready() {
			return health.ComponentHealth{Status: health.StatusDown, Message: "index not built"}
		}
		snap := eng.Snapshot()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d records indexed", snap.Len()),
		}
	})

	h := api.New(store, eng, events, resultCache, collector, reb, m, cfg.Engine)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
		slog.Info("metrics server listening", "port", cfg.Metrics.Port)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("similarity service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("similarity service stopped")
}
