package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const apiKeyHeader = "X-API-Key"

// authMiddleware enforces Authorization: Bearer <token> or X-API-Key:
// <token> against the configured token. An empty token disables auth
// entirely, matching app.py's _auth_dependency short circuit when
// AUTH_TOKEN is unset.
func authMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		if key := c.GetHeader(apiKeyHeader); key != "" {
			if key == token {
				c.Next()
				return
			}
			respondError(c, http.StatusUnauthorized, "invalid API key")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if strings.HasPrefix(authHeader, prefix) && strings.TrimPrefix(authHeader, prefix) == token {
			c.Next()
			return
		}

		respondError(c, http.StatusUnauthorized, "missing or invalid bearer token")
		c.Abort()
	}
}

func respondError(c *gin.Context, status int, detail string) {
	c.JSON(status, errorResponseDTO{Detail: detail})
}
