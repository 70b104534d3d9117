package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/job"
)

type JobsRepo struct {
	mu    sync.Mutex
	items map[string]job.Job
}

func NewJobsRepo() *JobsRepo {
	return &JobsRepo{
		items: make(map[string]job.Job),
	}
}

func (r *JobsRepo) Create(_ context.Context, j job.Job) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j.IdempotencyKey != nil {
		for _, existing := range r.items {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *j.IdempotencyKey {
				return job.Job{}, job.ErrDuplicate
			}
		}
	}
	r.items[j.ID] = j
	return j, nil
}

// ClaimNext locks the oldest runnable pending job and counts the attempt.
func (r *JobsRepo) ClaimNext(_ context.Context, workerID string, now time.Time) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var candidates []job.Job
	for _, j := range r.items {
		if j.Status == job.StatusPending && !j.RunAt.After(now) && j.Attempts < j.MaxAttempts {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return job.Job{}, job.ErrNotFound
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].RunAt.Equal(candidates[b].RunAt) {
			return candidates[a].CreatedAt.Before(candidates[b].CreatedAt)
		}
		return candidates[a].RunAt.Before(candidates[b].RunAt)
	})

	j := candidates[0]
	lockedAt := now.UTC()
	by := workerID
	j.Status = job.StatusProcessing
	j.Attempts++
	j.LockedAt = &lockedAt
	j.LockedBy = &by
	j.UpdatedAt = lockedAt
	r.items[j.ID] = j

	return j, nil
}

func (r *JobsRepo) MarkDone(_ context.Context, id string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusDone
		j.LastError = nil
	})
}

func (r *JobsRepo) MarkFailed(_ context.Context, id, errMsg string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.LastError = &errMsg
	})
}

func (r *JobsRepo) Reschedule(_ context.Context, id string, runAt time.Time, errMsg string) error {
	return r.update(id, func(j *job.Job) {
		j.Status = job.StatusPending
		j.RunAt = runAt.UTC()
		j.LastError = &errMsg
	})
}

func (r *JobsRepo) update(id string, fn func(j *job.Job)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.items[id]
	if !ok {
		return job.ErrNotFound
	}
	fn(&j)
	j.LockedAt = nil
	j.LockedBy = nil
	j.UpdatedAt = time.Now().UTC()
	r.items[id] = j
	return nil
}

// Retry puts a failed job back in the queue with a fresh attempt budget.
func (r *JobsRepo) Retry(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.items[id]
	if !ok {
		return job.ErrNotFound
	}
	if j.Status != job.StatusFailed {
		return job.ErrNotFailed
	}

	now := time.Now().UTC()
	j.Status = job.StatusPending
	j.Attempts = 0
	j.RunAt = now
	j.UpdatedAt = now
	r.items[id] = j
	return nil
}

// RequeueStale releases processing jobs whose lock is older than lockTTL.
// Jobs with attempts left go back to pending; exhausted ones are failed.
func (r *JobsRepo) RequeueStale(_ context.Context, lockTTL time.Duration, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-lockTTL)
	var n int64
	for id, j := range r.items {
		if j.Status == job.StatusProcessing && j.LockedAt != nil && j.LockedAt.Before(cutoff) {
			if j.Attempts < j.MaxAttempts {
				j.Status = job.StatusPending
			} else {
				msg := job.LockExpiredError
				j.Status = job.StatusFailed
				j.LastError = &msg
			}
			j.LockedAt = nil
			j.LockedBy = nil
			j.UpdatedAt = now.UTC()
			r.items[id] = j
			n++
		}
	}
	return n, nil
}

func (r *JobsRepo) GetByID(_ context.Context, id string) (job.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.items[id]
	if !ok {
		return job.Job{}, job.ErrNotFound
	}
	return j, nil
}

// All returns every job, oldest first.
func (r *JobsRepo) All() []job.Job {
	r.mu.Lock()
	out := make([]job.Job, 0, len(r.items))
	for _, j := range r.items {
		out = append(out, j)
	}
	r.mu.Unlock()

	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return out
}
