package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rjenterprise/poolhub/internal/actorctx"
	"github.com/rjenterprise/poolhub/internal/domain/account"
)

// Authenticator resolves a bearer token to a live account.
// Keep this small interface so tests can fake it easily.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (account.Account, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func abortUnauthorized(c *gin.Context, message string) {
	reqID, _ := c.Get(CtxRequestID)
	id, _ := reqID.(string)

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"message": message,
		"error": gin.H{
			"code":      "unauthorized",
			"message":   message,
			"requestId": id,
		},
	})
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer") {
			abortUnauthorized(c, "Not authorized, no token")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortUnauthorized(c, "Not authorized, no token")
			return
		}

		a, err := m.auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			if !errors.Is(err, account.ErrUnauthorized) {
				_ = c.Error(err)
			}
			abortUnauthorized(c, "Not authorized, token failed")
			return
		}

		c.Set(CtxAccount, a)
		c.Request = c.Request.WithContext(actorctx.WithAccountID(c.Request.Context(), a.ID))

		c.Next()
	}
}

// Optional helpers so handlers don't need to know the magic keys.

func AccountFromContext(c *gin.Context) (account.Account, bool) {
	v, ok := c.Get(CtxAccount)
	if !ok {
		return account.Account{}, false
	}
	a, ok := v.(account.Account)
	return a, ok
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	a, ok := AccountFromContext(c)
	if !ok || a.ID == "" {
		return "", false
	}
	return a.ID, true
}
