package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/job"
	"github.com/rjenterprise/poolhub/internal/domain/pool"
	"github.com/rjenterprise/poolhub/internal/jobs"
	"github.com/rjenterprise/poolhub/internal/notifications"
	"github.com/rjenterprise/poolhub/internal/repo/memory"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	err      error
	welcomes []notifications.WelcomeInput
	joins    []notifications.JoinConfirmationInput
}

func (n *recordingNotifier) SendWelcome(_ context.Context, in notifications.WelcomeInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.welcomes = append(n.welcomes, in)
	return nil
}

func (n *recordingNotifier) SendJoinConfirmation(_ context.Context, in notifications.JoinConfirmationInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.joins = append(n.joins, in)
	return nil
}

func enqueueWelcome(t *testing.T, q *memory.JobsRepo, maxAttempts int) job.Job {
	t.Helper()
	req, err := jobs.NewRequest(jobs.JobAccountWelcome, jobs.AccountWelcomePayload{
		AccountID: "acc-1",
		Email:     "ada@x.com",
		Username:  "ada",
	}, "")
	require.NoError(t, err)
	req.MaxAttempts = maxAttempts

	j, err := q.Create(context.Background(), job.New(req))
	require.NoError(t, err)
	return j
}

func newTestWorker(q Queue, n notifications.Notifier) *Worker {
	w := New(Config{WorkerID: "test"}, q, n, nil, nil)
	w.backoff = func(int) time.Duration { return time.Minute }
	return w
}

func TestProcessOne_Success(t *testing.T) {
	q := memory.NewJobsRepo()
	n := &recordingNotifier{}
	j := enqueueWelcome(t, q, 3)

	w := newTestWorker(q, n)
	processed, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	require.True(t, processed)

	got, err := q.GetByID(context.Background(), j.ID)
	require.NoError(t, err)
	require.Equal(t, job.StatusDone, got.Status)
	require.Equal(t, 1, got.Attempts)
	require.Len(t, n.welcomes, 1)
	require.Equal(t, "ada@x.com", n.welcomes[0].Email)

	snap := w.Metrics().Snapshot()
	require.Equal(t, uint64(1), snap.Claimed)
	require.Equal(t, uint64(1), snap.Done)
}

func TestProcessOne_IdleQueue(t *testing.T) {
	w := newTestWorker(memory.NewJobsRepo(), &recordingNotifier{})

	processed, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	require.False(t, processed)
}

func TestProcessOne_RetryThenFail(t *testing.T) {
	q := memory.NewJobsRepo()
	n := &recordingNotifier{err: errors.New("smtp down")}
	j := enqueueWelcome(t, q, 2)

	w := newTestWorker(q, n)
	now := time.Now()
	w.now = func() time.Time { return now }

	processed, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	require.True(t, processed)

	got, _ := q.GetByID(context.Background(), j.ID)
	require.Equal(t, job.StatusPending, got.Status)
	require.True(t, got.RunAt.After(now), "retry must be pushed into the future")
	require.NotNil(t, got.LastError)

	// not runnable until the backoff elapses
	processed, err = w.ProcessOne(context.Background())
	require.NoError(t, err)
	require.False(t, processed)

	now = now.Add(2 * time.Minute)
	processed, err = w.ProcessOne(context.Background())
	require.NoError(t, err)
	require.True(t, processed)

	got, _ = q.GetByID(context.Background(), j.ID)
	require.Equal(t, job.StatusFailed, got.Status)
	require.Equal(t, 2, got.Attempts)

	snap := w.Metrics().Snapshot()
	require.Equal(t, uint64(1), snap.Retried)
	require.Equal(t, uint64(1), snap.Failed)
}

func TestProcessOne_BadPayloadFailsWithoutRetry(t *testing.T) {
	q := memory.NewJobsRepo()
	j, err := q.Create(context.Background(), job.New(job.CreateRequest{
		Type:    string(jobs.JobAccountWelcome),
		Payload: []byte(`{"email":""}`),
	}))
	require.NoError(t, err)

	w := newTestWorker(q, &recordingNotifier{})
	_, err = w.ProcessOne(context.Background())
	require.NoError(t, err)

	got, _ := q.GetByID(context.Background(), j.ID)
	require.Equal(t, job.StatusFailed, got.Status)
	require.Equal(t, 1, got.Attempts)
}

func TestRequeueStale(t *testing.T) {
	q := memory.NewJobsRepo()
	j := enqueueWelcome(t, q, 3)

	_, err := q.ClaimNext(context.Background(), "crashed", time.Now())
	require.NoError(t, err)

	w := newTestWorker(q, &recordingNotifier{})
	w.now = func() time.Time { return time.Now().Add(w.cfg.LockTTL + time.Minute) }
	w.RequeueStale(context.Background())

	got, _ := q.GetByID(context.Background(), j.ID)
	require.Equal(t, job.StatusPending, got.Status)
	require.Nil(t, got.LockedBy)
	require.Equal(t, 1, got.Attempts)
	require.Equal(t, uint64(1), w.Metrics().Snapshot().Requeued)

	claimed, err := q.ClaimNext(context.Background(), "test", time.Now())
	require.NoError(t, err)
	require.Equal(t, j.ID, claimed.ID)
}

func TestRequeueStale_LastAttemptFails(t *testing.T) {
	q := memory.NewJobsRepo()
	j := enqueueWelcome(t, q, 1)
	ctx := context.Background()

	_, err := q.ClaimNext(ctx, "crashed", time.Now())
	require.NoError(t, err)

	w := newTestWorker(q, &recordingNotifier{})
	w.now = func() time.Time { return time.Now().Add(w.cfg.LockTTL + time.Minute) }
	w.RequeueStale(ctx)

	got, _ := q.GetByID(ctx, j.ID)
	require.Equal(t, job.StatusFailed, got.Status)
	require.NotNil(t, got.LastError)
	require.Equal(t, job.LockExpiredError, *got.LastError)
	require.Nil(t, got.LockedAt)

	// the admin retry route can recover it
	require.NoError(t, q.Retry(ctx, j.ID))
	claimed, err := q.ClaimNext(ctx, "test", time.Now())
	require.NoError(t, err)
	require.Equal(t, j.ID, claimed.ID)
}

func TestRun_DrainsQueueAndStops(t *testing.T) {
	q := memory.NewJobsRepo()
	n := &recordingNotifier{}
	for i := 0; i < 3; i++ {
		req, err := jobs.NewRequest(jobs.JobPoolJoinConfirmation, jobs.PoolJoinConfirmationPayload{
			PoolID:    "pool-1",
			AccountID: "acc-1",
			Email:     "ada@x.com",
		}, "")
		require.NoError(t, err)
		_, err = q.Create(context.Background(), job.New(req))
		require.NoError(t, err)
	}

	w := New(Config{WorkerID: "run", Concurrency: 2, PollInterval: 10 * time.Millisecond}, q, n, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		n.mu.Lock()
		defer n.mu.Unlock()
		return len(n.joins) == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	require.False(t, w.Ready())
}

func TestHealthHandler_Readiness(t *testing.T) {
	w := newTestWorker(memory.NewJobsRepo(), &recordingNotifier{})
	h := w.HealthHandler(nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	w.setReady(true)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"claimed"`)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		min     time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{40, 5 * time.Minute},
	}
	for _, tt := range tests {
		got := ExponentialBackoff(tt.attempt)
		require.GreaterOrEqual(t, got, tt.min)
		require.Less(t, got, tt.min+250*time.Millisecond)
	}
}

type fakeMaintainer struct {
	calls int
	err   error
}

func (f *fakeMaintainer) Maintain(context.Context) (pool.MaintenanceResult, error) {
	f.calls++
	return pool.MaintenanceResult{Purged: 1, Numbered: 2}, f.err
}

func TestMaintenance_RunOnce(t *testing.T) {
	target := &fakeMaintainer{}
	m, err := NewMaintenance("@every 1h", target, nil, nil)
	require.NoError(t, err)

	m.RunOnce(context.Background())
	target.err = errors.New("store down")
	m.RunOnce(context.Background())

	require.Equal(t, 2, target.calls)
	snap := m.metrics.Snapshot()
	require.Equal(t, uint64(2), snap.Sweeps)
	require.Equal(t, uint64(1), snap.SweepFailures)
}

func TestNewMaintenance_BadSchedule(t *testing.T) {
	_, err := NewMaintenance("every now and then", &fakeMaintainer{}, nil, nil)
	require.Error(t, err)
}
