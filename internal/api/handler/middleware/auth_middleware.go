package middleware

import (
	"net/http"
	"strings"

	"livescore"
	"livescore/internal/api/handler/response"
	"livescore/pkg"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware guards write endpoints with a bearer JWT. Disabled in dev.
func AuthMiddleware(cfg livescore.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Mode == "dev" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.APIError{Message: "Authorization header required"})
			return
		}

		// Bearer token format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.APIError{Message: "Invalid authorization header format"})
			return
		}

		claims, err := pkg.ValidateToken(parts[1], cfg.JWTConfig.Secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.APIError{Message: "Invalid or expired token"})
			return
		}

		c.Set("operator", claims.Subject)
		c.Set("operatorRole", claims.Role)
		c.Next()
	}
}
