package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"

	"github.com/garmlabs/garm/adapters/cache"
	"github.com/garmlabs/garm/adapters/codec"
	"github.com/garmlabs/garm/adapters/events"
	"github.com/garmlabs/garm/adapters/hasher"
	"github.com/garmlabs/garm/adapters/store"
	"github.com/garmlabs/garm/config"
	"github.com/garmlabs/garm/ports"
	"github.com/garmlabs/garm/service"
	transport "github.com/garmlabs/garm/transport/http"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("garm exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Principal store: Postgres when a DSN is configured, memory otherwise.
	var principalStore ports.PrincipalStore
	if cfg.Postgres.DSN != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("failed to open principal store: %w", err)
		}
		defer pg.Close()
		principalStore = pg
		logger.Info("using postgres principal store")
	} else {
		principalStore = store.NewMemoryStore()
		logger.Warn("no postgres dsn configured, using in-memory principal store")
	}

	// Revocation cache and event publisher share the Redis client when one
	// is configured.
	var revocationCache ports.RevocationCache
	var eventPub ports.EventPublisher

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}

		client := redis.NewClient(opts)
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: client},
			watermill.NewSlogLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("failed to create event publisher: %w", err)
		}
		defer publisher.Close()

		revocationCache = cache.NewRedisCache(client)
		eventPub = events.NewWatermillPublisher(publisher)
		logger.Info("using redis revocation cache")
	} else {
		revocationCache = cache.NewMemoryCache(cfg.Cache.SweepInterval)
		logger.Warn("no redis url configured, using in-memory revocation cache")
	}
	defer revocationCache.Close()

	authService := service.NewAuthService(
		hasher.NewScryptHasher(),
		codec.NewHMACCodec(cfg.Secrets.Access, cfg.Secrets.Refresh),
		revocationCache,
		principalStore,
		eventPub,
		logger,
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: transport.SetupRouter(authService),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("garm listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Pretty {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
