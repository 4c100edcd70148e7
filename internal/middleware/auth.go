package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"barguru/internal/platform/clerk"
)

// Context keys set by the middleware in this package.
const (
	ContextUserID    = "user_id"
	ContextSessionID = "session_id"
)

// SessionVerifier verifies the session token carried by a request.
type SessionVerifier interface {
	VerifyRequest(r *http.Request) (*clerk.Claims, error)
}

// Auth identifies signed-in members. Requests without a valid token continue
// anonymously; routes that need a member check RequireUser.
func Auth(verifier SessionVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}

		claims, err := verifier.VerifyRequest(c.Request)
		switch {
		case err == nil:
			c.Set(ContextUserID, claims.UserID())
		case errors.Is(err, clerk.ErrNoToken):
		default:
			logger.Debug("ignoring invalid session token", zap.Error(err))
		}
		c.Next()
	}
}

// RequireUser rejects requests that Auth did not identify.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// UserID returns the signed-in member's id.
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserID)
	return id, id != ""
}
