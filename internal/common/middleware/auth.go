package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"swagly-backend/internal/common/errors"
)

const AdminTokenHeader = "X-Admin-Token"

// RequireAdmin guards write endpoints (issuance, revocation, backup control).
// An empty token disables the check.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(AdminTokenHeader)
		if provided == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				provided = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if provided == "" {
			sendErrorResponse(c, errors.NewUnauthorizedError("admin token required"))
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			sendErrorResponse(c, errors.New(errors.ErrCodeForbidden, "Admin access required"))
			return
		}

		c.Next()
	}
}
