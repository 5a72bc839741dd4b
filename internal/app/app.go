package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"StockScan/internal/repository"
	"StockScan/internal/usecase"
	"StockScan/pkg/cache"
	"StockScan/pkg/clickhouse"
	"StockScan/pkg/config"
	pkghttp "StockScan/pkg/http"
	"StockScan/pkg/logger"
)

const (
	runLockKey = "scan:run:lock"
	runLockTTL = 6 * time.Hour
)

// App ties the scan engine, the ops HTTP server and the optional cron
// schedule into one process lifecycle.
type App struct {
	cfg          *config.Config
	log          *logger.Logger
	server       *pkghttp.Server
	orchestrator *usecase.Orchestrator
	clickhouse   *clickhouse.Client
	cache        cache.Service
	closers      []func() error
}

func New(
	cfg *config.Config,
	log *logger.Logger,
	server *pkghttp.Server,
	orchestrator *usecase.Orchestrator,
	ch *clickhouse.Client,
	cacheSvc cache.Service,
	closers []func() error,
) *App {
	return &App{
		cfg:          cfg,
		log:          log,
		server:       server,
		orchestrator: orchestrator,
		clickhouse:   ch,
		cache:        cacheSvc,
		closers:      closers,
	}
}

// Run starts the process. With an empty cronSpec it performs exactly one
// scan invocation and exits; with a cron expression it keeps serving and
// scans on schedule until ctx is cancelled. The HTTP server runs in both
// modes so probes and the ops API stay reachable during a scan.
func (a *App) Run(ctx context.Context, cronSpec string) error {
	if err := a.clickhouse.InitSchema(ctx, repository.Schema()); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	if err := a.server.Start(); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	defer a.shutdown()

	if cronSpec == "" {
		return a.runOnce(ctx)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cronSpec, func() {
		if err := a.runOnce(ctx); err != nil && ctx.Err() == nil {
			a.log.Error("scheduled scan failed", logger.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("cron spec %q: %w", cronSpec, err)
	}

	a.log.Info("scheduler started", logger.String("cron", cronSpec))
	scheduler.Start()
	<-ctx.Done()
	cronCtx := scheduler.Stop()
	<-cronCtx.Done()
	return nil
}

// runOnce performs one scan invocation under the process-wide run lock.
// The lock keeps overlapping cron fires and concurrent replicas from
// fighting over the same checkpoint.
func (a *App) runOnce(ctx context.Context) error {
	locked, err := a.cache.TryLock(ctx, runLockKey, runLockTTL)
	if err != nil {
		a.log.Warn("run lock unavailable, proceeding without it", logger.Error(err))
	} else if !locked {
		a.log.Warn("another invocation holds the run lock, skipping")
		return nil
	} else {
		defer func() {
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.cache.Unlock(unlockCtx, runLockKey); err != nil {
				a.log.Warn("run lock release failed", logger.Error(err))
			}
		}()
	}

	_, err = a.orchestrator.Run(ctx)
	return err
}

func (a *App) shutdown() {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown failed", logger.Error(err))
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.log.Warn("close failed during shutdown", logger.Error(err))
		}
	}
}
