package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/outage-alert-service/internal/adapter/kafka"
	"github.com/couchcryptid/outage-alert-service/internal/adapter/redislock"
	"github.com/couchcryptid/outage-alert-service/internal/adapter/source"
	"github.com/couchcryptid/outage-alert-service/internal/adapter/sqlstore"
	"github.com/couchcryptid/outage-alert-service/internal/adapter/telegram"
	"github.com/couchcryptid/outage-alert-service/internal/config"
	"github.com/couchcryptid/outage-alert-service/internal/domain"
	"github.com/couchcryptid/outage-alert-service/internal/engine"
	"github.com/couchcryptid/outage-alert-service/internal/observability"
)

const sendTimeout = 15 * time.Second

// app holds the wired service. close releases everything it opened.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	store   domain.Backend
	engine  *engine.Engine
	lock    *redislock.Lock

	closers []func() error
}

func openStore(ctx context.Context, cfg *config.Config) (domain.Backend, error) {
	return sqlstore.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*app, error) {
	if err := cfg.RequireRuntime(); err != nil {
		return nil, err
	}
	decode, err := source.Decoder(cfg.SourceEncoding)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, metrics: metrics, store: store}
	a.closers = append(a.closers, store.Close)

	var transport domain.Transport
	if cfg.DryRun {
		transport = telegram.NewDryRun(logger)
		logger.Warn("dry run: notifications are logged, not sent")
	} else {
		transport = telegram.New(cfg.TelegramAPIURL, cfg.TelegramToken, sendTimeout, logger)
	}

	opts := []engine.Option{
		engine.WithDecoder(decode),
		engine.WithFetchTimeout(cfg.FetchTimeout),
		engine.WithMessageLimit(cfg.MessageLimit),
		engine.WithConcurrency(cfg.DispatchConcurrency),
	}
	if cfg.KafkaEnabled {
		pub := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		a.closers = append(a.closers, pub.Close)
		opts = append(opts, engine.WithPublisher(pub))
		logger.Info("outage event stream enabled", "topic", cfg.KafkaTopic)
	}
	if cfg.RedisURL != "" {
		lock, client, err := redislock.NewFromURL(cfg.RedisURL, cfg.RunLockTTL, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.lock = lock
		a.closers = append(a.closers, client.Close)
		opts = append(opts, engine.WithRunLock(lock))
		logger.Info("distributed run lock enabled", "ttl", cfg.RunLockTTL)
	}

	a.engine, err = engine.New(engine.Deps{
		Store:     store,
		Fetcher:   source.NewFetcher(cfg.OutagesURL, cfg.FetchTimeout, cfg.FetchRetries, logger),
		Transport: transport,
		Logger:    logger,
		Metrics:   metrics,
	}, opts...)
	if err != nil {
		a.close()
		return nil, err
	}

	if cfg.SeedFile != "" {
		if err := a.applySeed(ctx); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) applySeed(ctx context.Context) error {
	seed, err := config.LoadSeed(a.cfg.SeedFile)
	if err != nil {
		return err
	}
	if err := seed.Apply(ctx, a.store, a.engine.Registry()); err != nil {
		return fmt.Errorf("apply seed %s: %w", a.cfg.SeedFile, err)
	}
	a.logger.Info("seed applied", "path", a.cfg.SeedFile, "groups", len(seed.Groups), "tasks", len(seed.Tasks))
	return nil
}

// CheckReadiness reports the store and, when configured, the lock backend.
func (a *app) CheckReadiness(ctx context.Context) error {
	if err := a.store.Ping(ctx); err != nil {
		return err
	}
	if a.lock != nil {
		if err := a.lock.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("run lock: %w", err)
		}
	}
	return nil
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
