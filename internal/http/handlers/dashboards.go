package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rjenterprise/poolhub/internal/http/middlewares"
	"github.com/rjenterprise/poolhub/internal/service"
)

type DashboardService interface {
	User(ctx context.Context, accountID string) (service.UserDashboard, error)
	Supplier(ctx context.Context, accountID string) (service.SupplierDashboard, error)
	Admin(ctx context.Context) (service.AdminDashboard, error)
}

type DashboardsHandler struct {
	dashboards DashboardService
}

func NewDashboardsHandler(dashboards DashboardService) *DashboardsHandler {
	return &DashboardsHandler{dashboards: dashboards}
}

// GET /api/dashboards/user
func (h *DashboardsHandler) User(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authorized, no token")
		return
	}

	cctx, cancel := storeTimeout(ctx, 3*time.Second)
	defer cancel()

	out, err := h.dashboards.User(cctx, id)
	if err != nil {
		RespondInternal(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, out)
}

// GET /api/dashboards/supplier
func (h *DashboardsHandler) Supplier(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authorized, no token")
		return
	}

	cctx, cancel := storeTimeout(ctx, 3*time.Second)
	defer cancel()

	out, err := h.dashboards.Supplier(cctx, id)
	if err != nil {
		RespondInternal(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, out)
}

// GET /api/dashboards/admin
func (h *DashboardsHandler) Admin(ctx *gin.Context) {
	cctx, cancel := storeTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := h.dashboards.Admin(cctx)
	if err != nil {
		RespondInternal(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, out)
}
