package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/callgenie/saathi-backend/pkg/httpx"
)

// ValidateUUIDParam validates that a path parameter is a UUID.
func ValidateUUIDParam(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		idStr := c.Param(paramName)
		if idStr == "" {
			httpx.BadRequest(c, paramName+" parameter is required")
			c.Abort()
			return
		}

		if _, err := uuid.Parse(idStr); err != nil {
			httpx.BadRequest(c, "invalid "+paramName+" parameter: must be a UUID")
			c.Abort()
			return
		}

		c.Next()
	}
}

// SanitizeString removes null bytes and trims whitespace.
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}
