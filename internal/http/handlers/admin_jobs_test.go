package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/rjenterprise/poolhub/internal/domain/job"
	"github.com/rjenterprise/poolhub/internal/http/handlers"
)

type fakeJobsRepo struct {
	getFn   func(ctx context.Context, id string) (job.Job, error)
	retryFn func(ctx context.Context, id string) error
}

func (f *fakeJobsRepo) GetByID(ctx context.Context, id string) (job.Job, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return job.Job{}, job.ErrNotFound
}

func (f *fakeJobsRepo) Retry(ctx context.Context, id string) error {
	if f.retryFn != nil {
		return f.retryFn(ctx, id)
	}
	return nil
}

func TestAdminJobsHandler_GetByID(t *testing.T) {
	known := uuid.NewString()
	repo := &fakeJobsRepo{
		getFn: func(ctx context.Context, id string) (job.Job, error) {
			if id == known {
				return job.Job{ID: id, Type: "account.welcome", Status: job.StatusFailed}, nil
			}
			return job.Job{}, job.ErrNotFound
		},
	}

	h := handlers.NewAdminJobsHandler(repo)
	r := setupRouter(http.MethodGet, "/admin/jobs/:id", nil, h.GetByID)

	tests := []struct {
		name           string
		id             string
		wantStatusCode int
	}{
		{name: "found", id: known, wantStatusCode: http.StatusOK},
		{name: "missing", id: uuid.NewString(), wantStatusCode: http.StatusNotFound},
		{name: "not_a_uuid", id: "42", wantStatusCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodGet, "/admin/jobs/"+tt.id, "")
			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestAdminJobsHandler_Retry(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatusCode int
		wantCode       string
	}{
		{name: "requeued", wantStatusCode: http.StatusOK},
		{name: "not_failed", err: job.ErrNotFailed, wantStatusCode: http.StatusBadRequest, wantCode: "job_not_failed"},
		{name: "missing", err: job.ErrNotFound, wantStatusCode: http.StatusNotFound, wantCode: "not_found"},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeJobsRepo{retryFn: func(ctx context.Context, id string) error { return tt.err }}

			h := handlers.NewAdminJobsHandler(repo)
			r := setupRouter(http.MethodPost, "/admin/jobs/:id/retry", nil, h.Retry)

			w := doJSON(r, http.MethodPost, "/admin/jobs/"+uuid.NewString()+"/retry", "")
			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if tt.wantCode != "" {
				if env := decodeEnvelope(t, w); env.Error.Code != tt.wantCode {
					t.Fatalf("got code %q, want %q", env.Error.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	down := handlers.NewHealthHandler(func(ctx context.Context) error { return context.DeadlineExceeded })
	w := doJSON(setupRouter(http.MethodGet, "/readyz", nil, down.Readyz), http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("got status %d, want 503", w.Code)
	}

	up := handlers.NewHealthHandler(nil)
	w = doJSON(setupRouter(http.MethodGet, "/readyz", nil, up.Readyz), http.MethodGet, "/readyz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
}
