package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/job"
	"github.com/rjenterprise/poolhub/internal/notifications"
	"github.com/rjenterprise/poolhub/internal/observability"
)

// Queue is the job store as seen by the worker.
type Queue interface {
	// ClaimNext locks one runnable job and counts the attempt; job.ErrNotFound when idle.
	ClaimNext(ctx context.Context, workerID string, now time.Time) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStale(ctx context.Context, lockTTL time.Duration, now time.Time) (int64, error)
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	ShutdownGrace time.Duration
	LockTTL       time.Duration
	JobTimeout    time.Duration
}

type Worker struct {
	cfg      Config
	queue    Queue
	notifier notifications.Notifier
	prom     *observability.Prom
	metrics  *observability.JobMetrics
	log      *slog.Logger
	now      func() time.Time
	backoff  func(attempt int) time.Duration

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, queue Queue, notifier notifications.Notifier, prom *observability.Prom, metrics *observability.JobMetrics) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if cfg.WorkerID == "" {
		cfg.WorkerID = "worker"
	}
	if metrics == nil {
		metrics = observability.NewJobMetrics()
	}

	return &Worker{
		cfg:      cfg,
		queue:    queue,
		notifier: notifier,
		prom:     prom,
		metrics:  metrics,
		log:      slog.Default().With("component", "worker", "worker_id", cfg.WorkerID),
		now:      time.Now,
		backoff:  ExponentialBackoff,
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

func (w *Worker) Metrics() *observability.JobMetrics {
	return w.metrics
}

// Run drives Concurrency claim loops plus a stale-lock reaper until ctx is cancelled,
// then waits up to ShutdownGrace for in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	w.log.Info("worker_started", "concurrency", w.cfg.Concurrency, "poll_interval", w.cfg.PollInterval.String())

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			w.loop(ctx, slot)
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.reapLoop(ctx)
	}()

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker_draining")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.log.Info("worker_stopped")
	case <-time.After(w.cfg.ShutdownGrace):
		w.log.Warn("worker_shutdown_grace_exceeded")
	}
	return nil
}

func (w *Worker) loop(ctx context.Context, slot int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// drain back to back while work is available
		for ctx.Err() == nil {
			processed, err := w.ProcessOne(ctx)
			if err != nil {
				w.log.Error("process_job_failed", "slot", slot, "err", err)
			}
			if !processed {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.LockTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RequeueStale(ctx)
		}
	}
}

// RequeueStale releases jobs locked by a crashed worker: back to the queue while
// attempts remain, failed otherwise.
func (w *Worker) RequeueStale(ctx context.Context) {
	n, err := w.queue.RequeueStale(ctx, w.cfg.LockTTL, w.now())
	if err != nil {
		w.log.Error("requeue_stale_failed", "err", err)
		return
	}
	if n > 0 {
		w.metrics.AddRequeued(n)
		w.log.Warn("requeued_stale_jobs", "count", n)
	}
}
