package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/rjenterprise/poolhub/internal/domain/account"
)

// RequireRole must be chained after RequireAuth. A role mismatch is a 401,
// matching what existing clients expect.
func RequireRole(roles ...account.Role) gin.HandlerFunc {
	message := "Not authorized"
	if len(roles) == 1 {
		message = "Not authorized as " + article(roles[0]) + " " + string(roles[0])
	}

	return func(c *gin.Context) {
		a, ok := AccountFromContext(c)
		if !ok {
			abortUnauthorized(c, "Not authorized, no token")
			return
		}
		if !a.HasRole(roles...) {
			abortUnauthorized(c, message)
			return
		}
		c.Next()
	}
}

func article(r account.Role) string {
	switch string(r)[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an"
	}
	return "a"
}
