package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	pollstore "pollkeeper/contexts/polling/poll-store"
	cronadapter "pollkeeper/contexts/polling/poll-store/adapters/cron"
	"pollkeeper/contexts/polling/poll-store/adapters/system"
	"pollkeeper/contexts/polling/poll-store/application/workers"
	"pollkeeper/contexts/polling/poll-store/ports"
	"pollkeeper/internal/platform/config"
	"pollkeeper/internal/platform/httpserver"
	"pollkeeper/internal/platform/messaging"
	"pollkeeper/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server  *httpserver.Server
	backend recordBackend
	bus     *messaging.Kafka
	logger  *slog.Logger
}

type WorkerApp struct {
	runner          *workers.ScheduleRunner
	scheduler       *cronadapter.Scheduler
	backend         recordBackend
	bus             *messaging.Kafka
	refreshInterval time.Duration
	logger          *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	tables := ports.NewTables(cfg.TableName)
	backend, err := openRecordStore(context.Background(), cfg, tables, logger)
	if err != nil {
		return nil, err
	}

	bus, publisher, err := openPublisher(cfg, logger)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	module := pollstore.NewModule(pollstore.Dependencies{
		Store:     backend.store,
		Tables:    tables,
		Clock:     system.SystemClock{},
		IDGen:     system.UUIDGenerator{},
		Publisher: publisher,
		Metrics:   metrics.NewLedgerMetrics(registry, "pollkeeper"),
		Logger:    logger,
	})

	server := httpserver.New(module, registry, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:  server,
		backend: backend,
		bus:     bus,
		logger:  logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn("worker is using a process-local record store",
			"event", "bootstrap_worker_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	tables := ports.NewTables(cfg.TableName)
	backend, err := openRecordStore(context.Background(), cfg, tables, logger)
	if err != nil {
		return nil, err
	}

	bus, publisher, err := openPublisher(cfg, logger)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	scheduler := cronadapter.NewScheduler(logger)
	module := pollstore.NewModule(pollstore.Dependencies{
		Store:        backend.store,
		Tables:       tables,
		Clock:        system.SystemClock{},
		IDGen:        system.UUIDGenerator{},
		Publisher:    publisher,
		Scheduler:    scheduler,
		FireTimeout:  30 * time.Second,
		DisableCrons: !cfg.EnableScheduleRunner,
		Logger:       logger,
	})

	return &WorkerApp{
		runner:          module.Runner,
		scheduler:       scheduler,
		backend:         backend,
		bus:             bus,
		refreshInterval: cfg.ScheduleRefreshInterval,
		logger:          logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	}
}

func (a *APIApp) Close() error {
	var errs []error
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	errs = append(errs, a.backend.Close())
	return errors.Join(errs...)
}

// Run starts the cron scheduler and re-syncs it with the schedules table on
// every refresh tick until ctx is done. A failed sync is logged and retried
// on the next tick.
func (w *WorkerApp) Run(ctx context.Context) error {
	w.scheduler.Start()

	ticker := time.NewTicker(w.refreshInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"refresh_interval", w.refreshInterval.String(),
	)

	for {
		if _, err := w.runner.Sync(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("schedule sync failed",
				"event", "bootstrap_worker_sync_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	w.runner.Stop()
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	w.scheduler.Stop(stopCtx)

	var errs []error
	if w.bus != nil {
		errs = append(errs, w.bus.Close())
	}
	errs = append(errs, w.backend.Close())
	return errors.Join(errs...)
}

// openPublisher returns a nil publisher when event publishing is disabled,
// so the module skips events entirely.
func openPublisher(cfg config.Config, logger *slog.Logger) (*messaging.Kafka, ports.EventPublisher, error) {
	if !cfg.EnableEventPublishing {
		return nil, nil, nil
	}
	bus, err := messaging.NewKafka(cfg.KafkaBrokers, cfg.IsOffline, logger)
	if err != nil {
		return nil, nil, err
	}
	return bus, bus, nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
