package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rjenterprise/poolhub/internal/domain/account"
	"github.com/rjenterprise/poolhub/internal/domain/bid"
	"github.com/rjenterprise/poolhub/internal/domain/pool"
	"github.com/rjenterprise/poolhub/internal/http/middlewares"
)

type PoolService interface {
	Create(ctx context.Context, creatorID string, req pool.CreateRequest) (pool.Pool, error)
	List(ctx context.Context, search string) ([]pool.Pool, error)
	Get(ctx context.Context, id string) (pool.Pool, error)
	Join(ctx context.Context, poolID string, who account.Account) (pool.Pool, error)
	SubmitBid(ctx context.Context, poolID string, supplier account.Account, amount float64) (bid.Bid, error)
}

type PoolsHandler struct {
	pools PoolService
}

func NewPoolsHandler(pools PoolService) *PoolsHandler {
	return &PoolsHandler{pools: pools}
}

// respondPoolError maps the pool sentinels shared by the :id routes.
func respondPoolError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, pool.ErrInvalidID):
		RespondInvalidID(ctx, "Invalid pool id")
	case errors.Is(err, pool.ErrNotFound):
		RespondNotFound(ctx, "Pool not found")
	case errors.Is(err, pool.ErrAlreadyMember):
		RespondConflict(ctx, "already_member", "You are already a member of this pool")
	case errors.Is(err, pool.ErrMissingFields):
		RespondError(ctx, http.StatusBadRequest, "missing_fields", "Please provide all required fields", nil)
	case errors.Is(err, bid.ErrInvalidAmount):
		RespondBadRequest(ctx, "Bid amount must be greater than zero", nil)
	default:
		RespondInternal(ctx, err)
	}
}

// GET /api/pools?search=
func (h *PoolsHandler) List(ctx *gin.Context) {
	cctx, cancel := storeTimeout(ctx, 5*time.Second)
	defer cancel()

	items, err := h.pools.List(cctx, ctx.Query("search"))
	if err != nil {
		RespondInternal(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

// GET /api/pools/:id
func (h *PoolsHandler) Get(ctx *gin.Context) {
	cctx, cancel := storeTimeout(ctx, 2*time.Second)
	defer cancel()

	p, err := h.pools.Get(cctx, ctx.Param("id"))
	if err != nil {
		respondPoolError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

// POST /api/pools
func (h *PoolsHandler) Create(ctx *gin.Context) {
	a, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authorized, no token")
		return
	}

	var req pool.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := h.pools.Create(cctx, a.ID, req)
	if err != nil {
		respondPoolError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

// POST /api/pools/:id/join
func (h *PoolsHandler) Join(ctx *gin.Context) {
	a, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authorized, no token")
		return
	}

	cctx, cancel := storeTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := h.pools.Join(cctx, ctx.Param("id"), a)
	if err != nil {
		respondPoolError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// POST /api/pools/:id/bids
func (h *PoolsHandler) SubmitBid(ctx *gin.Context) {
	a, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authorized, no token")
		return
	}

	var req pool.BidRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeTimeout(ctx, 3*time.Second)
	defer cancel()

	b, err := h.pools.SubmitBid(cctx, ctx.Param("id"), a, req.Amount)
	if err != nil {
		respondPoolError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, b)
}
