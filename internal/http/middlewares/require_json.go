package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects write requests with a body that is not JSON.
// Bodiless POSTs such as the join action pass through.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}
			ct := c.GetHeader("Content-Type")
			// allow "application/json; charset=utf-8"
			if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				msg := "Content-Type must be application/json"
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"message": msg,
					"error": gin.H{
						"code":    "unsupported_media_type",
						"message": msg,
					},
				})
				return
			}
		}
		c.Next()
	}
}
