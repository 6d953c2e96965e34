package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/callgenie/saathi-backend/pkg/auth"
	"github.com/callgenie/saathi-backend/pkg/httpx"
)

// AuthMiddleware verifies the Supabase bearer token. When jwtSecret is
// empty, verification is disabled and requests pass through.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSecret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httpx.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || strings.ToLower(bearerToken[0]) != "bearer" {
			httpx.Unauthorized(c, "invalid authorization format")
			c.Abort()
			return
		}

		claims, err := auth.ParseSupabaseToken(bearerToken[1], jwtSecret)
		if err != nil {
			httpx.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("auth_user_id", claims.Subject)
		c.Set("auth_email", claims.Email)
		c.Next()
	}
}
