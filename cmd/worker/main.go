package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rjenterprise/poolhub/internal/config"
	"github.com/rjenterprise/poolhub/internal/db"
	"github.com/rjenterprise/poolhub/internal/notifications"
	"github.com/rjenterprise/poolhub/internal/observability"
	"github.com/rjenterprise/poolhub/internal/queue/worker"
	"github.com/rjenterprise/poolhub/internal/repo/mongodb"
	"github.com/rjenterprise/poolhub/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env, cfg.LogLevelValue()).With("process", "worker")
	slog.SetDefault(log)

	if cfg.StoreDriver == config.StoreMemory {
		return errors.New("the worker needs STORE_DRIVER=mongo; the memory store runs its worker inside the API")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, "poolhub-worker", cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := db.Connect(cctx, cfg.MongoURI)
	cancel()
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	database := client.Database(cfg.MongoDatabase)
	prom := observability.NewProm(observability.NewRegistry())
	store := mongodb.New(database, prom)

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log, notifications.LogNotifierOptions{}),
		notifications.ProtectedNotifierConfig{
			Timeout:          3 * time.Second,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
			HalfOpenMaxCalls: 1,
		},
	)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())
	metrics := observability.NewJobMetrics()

	w := worker.New(worker.Config{
		PollInterval:  cfg.WorkerPollInterval(),
		WorkerID:      workerID,
		Concurrency:   cfg.WorkerConcurrency,
		ShutdownGrace: 10 * time.Second,
	}, store.Jobs, notifier, prom, metrics)

	pools := service.NewPools(store.Pools, store.Bids, store.Jobs).WithMetrics(prom)
	maintenance, err := worker.NewMaintenance(cfg.MaintenanceSchedule, pools, metrics, log)
	if err != nil {
		return err
	}
	maintenance.Start()

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(db.Pinger{Client: client}, map[string]http.Handler{"/metrics": prom.Handler()}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "worker_id", workerID)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	<-maintenance.Stop().Done()

	shutdownCtx, cancelShutdown := config.WithTimeout(5 * time.Second)
	defer cancelShutdown()
	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
	return nil
}
