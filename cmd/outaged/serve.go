package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/outage-alert-service/internal/adapter/filewatch"
	httpadapter "github.com/couchcryptid/outage-alert-service/internal/adapter/http"
	"github.com/couchcryptid/outage-alert-service/internal/config"
	"github.com/couchcryptid/outage-alert-service/internal/observability"
	"github.com/couchcryptid/outage-alert-service/internal/scheduler"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the ops HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, a, a.store, a.engine, logger)
	sched := scheduler.New(a.store, a.engine, nil, logger, metrics, cfg.SchedulerTick)

	g, gctx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Start scheduler.
	g.Go(func() error {
		return sched.Run(gctx)
	})

	if cfg.SeedWatch {
		w := filewatch.New(cfg.SeedFile, a.applySeed, 0, logger)
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	<-gctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	runErr := g.Wait()
	if err := a.close(); err != nil {
		logger.Error("close error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}
