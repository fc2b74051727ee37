package middleware

import (
	"crypto/subtle"
	"net/http"

	"coursepay-api/internal/response"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware guards the admin routes with a shared API key sent in
// X-API-Key. An empty configured key disables the admin routes entirely.
func AdminAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "Admin API is not configured"))
			c.Abort()
			return
		}

		provided := c.GetHeader("X-API-Key")
		if provided == "" {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing api_key"))
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid api_key"))
			c.Abort()
			return
		}

		c.Next()
	}
}
