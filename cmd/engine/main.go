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

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/config"
	"github.com/hamed0406/checkwatch/internal/eventlog"
	"github.com/hamed0406/checkwatch/internal/httpapi"
	apimw "github.com/hamed0406/checkwatch/internal/httpapi/middleware"
	"github.com/hamed0406/checkwatch/internal/logging"
	"github.com/hamed0406/checkwatch/internal/probe"
	"github.com/hamed0406/checkwatch/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("engine_failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := eventlog.New(logger, cfg.Env, cfg.EventLogDir)
	defer func() { err = multierr.Append(err, events.Close()) }()

	store, storeCloser, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, storeCloser.Close()) }()

	locker, lockCloser, err := newLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, lockCloser.Close()) }()

	sweeper := scheduler.NewSweeper(
		logger,
		events,
		store,
		probe.NewHTTPProber(),
		newNotifier(cfg, logger),
		locker,
		cfg.CheckInterval,
		cfg.MaxConcurrentChecks,
	)

	api := httpapi.NewServer(logger, events, store, cfg.MaxChecksPerOwner)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 5 * time.Second,
	}

	events.Record(eventlog.INFO, eventlog.SysKey, "engine_started",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.CheckInterval),
	)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown_signal")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
