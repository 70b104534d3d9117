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

	"github.com/rjenterprise/poolhub/internal/auth"
	"github.com/rjenterprise/poolhub/internal/cache"
	"github.com/rjenterprise/poolhub/internal/config"
	"github.com/rjenterprise/poolhub/internal/db"
	httpx "github.com/rjenterprise/poolhub/internal/http"
	"github.com/rjenterprise/poolhub/internal/http/middlewares"
	"github.com/rjenterprise/poolhub/internal/notifications"
	"github.com/rjenterprise/poolhub/internal/observability"
	"github.com/rjenterprise/poolhub/internal/queue/redisclient"
	"github.com/rjenterprise/poolhub/internal/queue/worker"
	"github.com/rjenterprise/poolhub/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env, cfg.LogLevelValue())
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, "poolhub-api", cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	prom := observability.NewProm(observability.NewRegistry())

	st, err := openStores(ctx, cfg, prom)
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = st.close(cctx)
	}()

	// cache and rate limiting go through Redis when configured
	var (
		dashCache    cache.Store         = cache.NewMemory(cfg.DashboardCacheTTL())
		authLimiter  middlewares.Limiter = middlewares.NewMemoryLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow())
		writeLimiter middlewares.Limiter = middlewares.NewMemoryLimiter(cfg.WriteRateLimit, cfg.WriteRateWindow())
	)
	if cfg.RedisAddr != "" {
		rc, err := redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn("redis unavailable, using in-process cache and limiter", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer func() { _ = rc.Close() }()
			dashCache = cache.NewRedis(rc.Raw())
			authLimiter = middlewares.NewRedisLimiter(rc.Raw(), cfg.AuthRateLimit, cfg.AuthRateWindow())
			writeLimiter = middlewares.NewRedisLimiter(rc.Raw(), cfg.WriteRateLimit, cfg.WriteRateWindow())
			log.Info("redis connected", "addr", cfg.RedisAddr)
		}
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL())
	if err != nil {
		return err
	}

	accounts := service.NewAccounts(st.accounts, tokens, st.jobs)
	pools := service.NewPools(st.pools, st.bids, st.jobs).WithMetrics(prom)
	dashboards := service.NewDashboards(st.accounts, st.pools, st.bids, st.transactions).
		WithCache(dashCache, cfg.DashboardCacheTTL()).
		WithLocation(cfg.Location())

	seedCtx, cancelSeed := context.WithTimeout(ctx, 10*time.Second)
	err = db.EnsureAdminAccount(seedCtx, accounts, cfg)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	// the memory store is invisible to a separate worker process, so it always runs inline
	if cfg.WorkerInline || cfg.StoreDriver == config.StoreMemory {
		startInlineWorker(ctx, cfg, st, pools, prom, log)
	}

	router := httpx.NewRouter(httpx.Deps{
		Env:          cfg.Env,
		ServiceName:  "poolhub-api",
		CORSOrigins:  cfg.CORSOrigins(),
		Accounts:     accounts,
		Pools:        pools,
		Dashboards:   dashboards,
		Jobs:         st.jobs,
		AuthLimiter:  authLimiter,
		WriteLimiter: writeLimiter,
		Prom:         prom,
		Ping:         st.ping,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// startInlineWorker runs the job worker and maintenance cron inside the API process.
func startInlineWorker(ctx context.Context, cfg config.Config, st stores, pools *service.Pools, prom *observability.Prom, log *slog.Logger) {
	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log, notifications.LogNotifierOptions{}),
		notifications.ProtectedNotifierConfig{},
	)

	metrics := observability.NewJobMetrics()
	host, _ := os.Hostname()

	w := worker.New(worker.Config{
		PollInterval: cfg.WorkerPollInterval(),
		WorkerID:     host + "-api-" + strconv.Itoa(os.Getpid()),
		Concurrency:  cfg.WorkerConcurrency,
	}, st.jobs, notifier, prom, metrics)

	go func() {
		if err := w.Run(ctx); err != nil {
			log.Error("inline worker stopped", "err", err)
		}
	}()

	m, err := worker.NewMaintenance(cfg.MaintenanceSchedule, pools, metrics, log)
	if err != nil {
		log.Error("maintenance not scheduled", "err", err)
		return
	}
	m.Start()
	go func() {
		<-ctx.Done()
		<-m.Stop().Done()
	}()
}
