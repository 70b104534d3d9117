package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/job"
	"github.com/rjenterprise/poolhub/internal/jobs"
	"github.com/rjenterprise/poolhub/internal/notifications"
	"github.com/rjenterprise/poolhub/internal/observability"
)

// ProcessOne claims and runs at most one job. processed is false when the queue is idle.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	j, err := w.queue.ClaimNext(claimCtx, w.cfg.WorkerID, w.now())
	cancel()

	if errors.Is(err, job.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim: %w", err)
	}
	w.metrics.IncClaimed()

	// a claimed job finishes even when shutdown starts mid-run
	runCtx, cancelRun := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.JobTimeout)
	runCtx = observability.WithRequestID(runCtx, "job:"+j.ID)
	defer cancelRun()

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()
	execErr := w.execute(runCtx, j)
	elapsed := time.Since(start)
	w.metrics.ObserveDuration(elapsed)

	if execErr != nil {
		result := w.handleFailure(runCtx, j, execErr)
		w.prom.ObserveJob(j.Type, result, elapsed)
		return true, nil
	}

	if err := w.queue.MarkDone(runCtx, j.ID); err != nil {
		_ = w.queue.MarkFailed(runCtx, j.ID, "mark_done_failed: "+err.Error())
		w.metrics.IncFailed()
		w.prom.ObserveJob(j.Type, "failed", elapsed)
		return true, err
	}

	w.metrics.IncDone()
	w.prom.ObserveJob(j.Type, "done", elapsed)
	w.log.InfoContext(runCtx, "job_done", "job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts, "duration_ms", elapsed.Milliseconds())
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.AccountWelcomePayload:
		return w.notifier.SendWelcome(ctx, notifications.WelcomeInput{
			AccountID: p.AccountID,
			Email:     p.Email,
			Username:  p.Username,
		})
	case jobs.PoolJoinConfirmationPayload:
		return w.notifier.SendJoinConfirmation(ctx, notifications.JoinConfirmationInput{
			AccountID:  p.AccountID,
			Email:      p.Email,
			Username:   p.Username,
			PoolID:     p.PoolID,
			PoolNumber: p.PoolNumber,
			PoolTitle:  p.Title,
		})
	default:
		return fmt.Errorf("%w: no handler for %s", jobs.ErrInvalidJobType, j.Type)
	}
}

// permanent reports errors a retry cannot fix.
func permanent(err error) bool {
	return errors.Is(err, jobs.ErrInvalidJobType) ||
		errors.Is(err, jobs.ErrInvalidJobPayload) ||
		errors.Is(err, jobs.ErrPayloadTypeMismatch)
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error) string {
	msg := execErr.Error()
	log := w.log.With("job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts, "max_attempts", j.MaxAttempts)

	if permanent(execErr) || j.Exhausted() {
		if err := w.queue.MarkFailed(ctx, j.ID, msg); err != nil {
			log.ErrorContext(ctx, "mark_failed_failed", "err", err)
		}
		w.metrics.IncFailed()
		log.ErrorContext(ctx, "job_failed", "err", execErr)
		return "failed"
	}

	runAt := w.now().Add(w.backoff(j.Attempts - 1))
	if err := w.queue.Reschedule(ctx, j.ID, runAt, msg); err != nil {
		log.ErrorContext(ctx, "reschedule_failed", "err", err)
	}
	w.metrics.IncRetried()
	log.WarnContext(ctx, "job_retry_scheduled", "run_at", runAt, "err", execErr)
	return "retry"
}
