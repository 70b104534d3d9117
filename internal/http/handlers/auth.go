package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rjenterprise/poolhub/internal/domain/account"
	"github.com/rjenterprise/poolhub/internal/http/middlewares"
)

type AccountService interface {
	Register(ctx context.Context, req account.RegisterRequest) (account.Session, error)
	Login(ctx context.Context, req account.LoginRequest) (account.Session, error)
	SetRole(ctx context.Context, accountID, role string) (account.Account, error)
}

type AuthHandler struct {
	accounts AccountService
}

func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// POST /api/auth/register
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req account.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt dominates this budget
	cctx, cancel := storeTimeout(ctx, 5*time.Second)
	defer cancel()

	sess, err := h.accounts.Register(cctx, req)
	switch {
	case errors.Is(err, account.ErrEmailTaken):
		RespondConflict(ctx, "email_taken", "User already exists")
		return
	case errors.Is(err, account.ErrUsernameTaken):
		RespondConflict(ctx, "username_taken", "Username is already taken")
		return
	case err != nil:
		RespondInternal(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, sess)
}

// POST /api/auth/login
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req account.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeTimeout(ctx, 5*time.Second)
	defer cancel()

	sess, err := h.accounts.Login(cctx, req)
	if errors.Is(err, account.ErrInvalidCredentials) {
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}
	if err != nil {
		RespondInternal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, sess)
}

// GET /api/auth/me
func (h *AuthHandler) Me(ctx *gin.Context) {
	a, ok := middlewares.AccountFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authorized, no token")
		return
	}

	ctx.JSON(http.StatusOK, a)
}

// PUT /api/accounts/:id/role
func (h *AuthHandler) SetRole(ctx *gin.Context) {
	var req account.UpdateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeTimeout(ctx, 3*time.Second)
	defer cancel()

	a, err := h.accounts.SetRole(cctx, ctx.Param("id"), req.Role)
	switch {
	case errors.Is(err, account.ErrInvalidID):
		RespondInvalidID(ctx, "Invalid account id")
		return
	case errors.Is(err, account.ErrInvalidRole):
		RespondBadRequest(ctx, "Unknown role", nil)
		return
	case errors.Is(err, account.ErrNotFound):
		RespondNotFound(ctx, "User not found")
		return
	case err != nil:
		RespondInternal(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, a)
}
