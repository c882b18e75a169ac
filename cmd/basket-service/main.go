package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_basket/internal/cache"
	"github.com/fjod/go_basket/internal/catalog"
	"github.com/fjod/go_basket/internal/checkout"
	"github.com/fjod/go_basket/internal/config"
	h "github.com/fjod/go_basket/internal/http"
	"github.com/fjod/go_basket/internal/poller"
	"github.com/fjod/go_basket/internal/repository"
	"github.com/fjod/go_basket/internal/service"
	"github.com/fjod/go_basket/internal/store"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	source, closeSource, err := newCatalogSource(cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up catalog source", zap.Error(err))
	}
	defer closeSource()

	var snapshots cache.SnapshotCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal("redis connection failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		logger.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))
		snapshots = cache.NewRedisCache(redisClient, cfg.SnapshotTTL)
	} else {
		logger.Info("snapshot cache disabled")
	}

	var publisher checkout.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = checkout.NewKafkaPublisher(cfg.HandoffTopic, logger, cfg.KafkaBrokers...)
		logger.Info("publishing handoffs to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.HandoffTopic))
	} else {
		publisher = checkout.NewLogPublisher(logger)
		logger.Info("no kafka brokers configured, handoffs are logged only")
	}
	defer publisher.Close()

	pollCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	if snapshots != nil && len(cfg.KafkaBrokers) > 0 {
		updates := poller.NewPoller(snapshots, cfg.PackageUpdateTopic, logger, cfg.KafkaBrokers...)
		defer updates.Close()
		go updates.Run(pollCtx)
		logger.Info("listening for package updates", zap.String("topic", cfg.PackageUpdateTopic))
	}

	sessions := store.NewMemoryStore(cfg.SessionTTL)
	defer sessions.Close()

	loader := catalog.NewLoader(source, snapshots, logger, catalog.WithFetchTimeout(cfg.RequestTimeout))
	svc := service.NewCustomizationService(loader, sessions, publisher, logger)
	sessionHandler := h.NewSessionHandler(svc, cfg.RequestTimeout, logger)

	r := h.NewRouter(sessionHandler, h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "basket-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("basket service starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopPolling()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newCatalogSource picks the package source. The returned close func is
// always safe to call.
func newCatalogSource(cfg *config.Config, logger *zap.Logger) (catalog.Source, func(), error) {
	switch cfg.CatalogSource {
	case config.CatalogSourceSQLite:
		repo, err := repository.NewRepository(cfg.CatalogDBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
			repo.Close()
			return nil, nil, err
		}
		logger.Info("using sqlite catalog", zap.String("path", cfg.CatalogDBPath))
		return repo, func() { repo.Close() }, nil
	default:
		logger.Info("using package service", zap.String("url", cfg.PackageServiceURL))
		return catalog.NewHTTPSource(cfg.PackageServiceURL, cfg.CatalogTimeout, logger), func() {}, nil
	}
}
