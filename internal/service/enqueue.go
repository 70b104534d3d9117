package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rjenterprise/poolhub/internal/domain/job"
	"github.com/rjenterprise/poolhub/internal/jobs"
	"github.com/rjenterprise/poolhub/internal/observability"
)

// enqueue is best effort: the request that triggered it has already succeeded,
// so failures are logged and swallowed.
func enqueue(ctx context.Context, store JobStore, t jobs.JobType, payload any, key string) {
	if store == nil {
		return
	}

	req, err := jobs.NewRequest(t, payload, key)
	if err != nil {
		slog.Default().ErrorContext(ctx, "job_encode_failed", "job_type", t, "err", err)
		return
	}

	j, err := store.Create(ctx, job.New(req))
	switch {
	case errors.Is(err, job.ErrDuplicate):
		slog.Default().DebugContext(ctx, "job_already_enqueued", "job_type", t, "idempotency_key", key)
	case err != nil:
		slog.Default().WarnContext(ctx, "job_enqueue_failed", "job_type", t, "err", err)
	default:
		slog.Default().DebugContext(ctx, "job_enqueued", "job_type", t, "job_id", j.ID)
	}
}

func requestID(ctx context.Context) string {
	return observability.RequestIDFrom(ctx)
}
