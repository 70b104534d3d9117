package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rjenterprise/poolhub/internal/domain/job"
)

type AdminJobsRepo interface {
	GetByID(ctx context.Context, id string) (job.Job, error)
	Retry(ctx context.Context, id string) error
}

type AdminJobsHandler struct {
	repo AdminJobsRepo
}

func NewAdminJobsHandler(repo AdminJobsRepo) *AdminJobsHandler {
	return &AdminJobsHandler{
		repo: repo,
	}
}

// GET /api/admin/jobs/:id
func (h *AdminJobsHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")
	if uuid.Validate(id) != nil {
		RespondInvalidID(ctx, "Invalid job id")
		return
	}

	cctx, cancel := storeTimeout(ctx, 2*time.Second)
	defer cancel()

	j, err := h.repo.GetByID(cctx, id)
	if errors.Is(err, job.ErrNotFound) {
		RespondNotFound(ctx, "Job not found")
		return
	}
	if err != nil {
		RespondInternal(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, j)
}

// POST /api/admin/jobs/:id/retry
func (h *AdminJobsHandler) Retry(ctx *gin.Context) {
	id := ctx.Param("id")
	if uuid.Validate(id) != nil {
		RespondInvalidID(ctx, "Invalid job id")
		return
	}

	cctx, cancel := storeTimeout(ctx, 2*time.Second)
	defer cancel()

	err := h.repo.Retry(cctx, id)
	switch {
	case errors.Is(err, job.ErrNotFound):
		RespondNotFound(ctx, "Job not found")
		return
	case errors.Is(err, job.ErrNotFailed):
		RespondConflict(ctx, "job_not_failed", "Only failed jobs can be retried")
		return
	case err != nil:
		RespondInternal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"jobId":  id,
		"status": job.StatusPending,
	})
}
