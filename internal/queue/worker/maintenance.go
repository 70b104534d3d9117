package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/pool"
	"github.com/rjenterprise/poolhub/internal/observability"
	"github.com/robfig/cron/v3"
)

// Maintainer purges expired listings and backfills pool numbers.
type Maintainer interface {
	Maintain(ctx context.Context) (pool.MaintenanceResult, error)
}

// Maintenance runs the pool sweep on a cron schedule.
type Maintenance struct {
	cron    *cron.Cron
	target  Maintainer
	metrics *observability.JobMetrics
	logger  *slog.Logger
	timeout time.Duration
}

func NewMaintenance(schedule string, target Maintainer, metrics *observability.JobMetrics, logger *slog.Logger) (*Maintenance, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewJobMetrics()
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	m := &Maintenance{
		cron:    c,
		target:  target,
		metrics: metrics,
		logger:  logger.With("component", "maintenance"),
		timeout: time.Minute,
	}

	if _, err := c.AddFunc(schedule, func() { m.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule pool maintenance %q: %w", schedule, err)
	}
	m.logger.Info("scheduled pool maintenance", "schedule", schedule)

	return m, nil
}

func (m *Maintenance) Start() {
	m.cron.Start()
}

// Stop returns a context that is done once a running sweep finishes.
func (m *Maintenance) Stop() context.Context {
	return m.cron.Stop()
}

// RunOnce performs a single sweep.
func (m *Maintenance) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	res, err := m.target.Maintain(ctx)
	m.metrics.IncSweep(err == nil)
	if err != nil {
		m.logger.ErrorContext(ctx, "pool maintenance failed", "err", err)
		return
	}
	m.logger.InfoContext(ctx, "pool maintenance finished", "purged", res.Purged, "numbered", res.Numbered)
}
