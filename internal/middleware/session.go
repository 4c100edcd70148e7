package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionConfig configures the anonymous session cookie.
type SessionConfig struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// AnonymousSession makes sure every caller has a session id, issuing a cookie
// with a fresh UUID when the request carries none.
func AnonymousSession(cfg SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(cfg.CookieName)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, id, int(cfg.MaxAge.Seconds()), "/", "", cfg.Secure, true)
		}
		c.Set(ContextSessionID, id)
		c.Next()
	}
}

// SessionID returns the caller's anonymous session id.
func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionID)
}

// DistinctID identifies the caller for analytics and rate limiting: the
// member id when signed in, otherwise the session id, otherwise the client IP.
func DistinctID(c *gin.Context) string {
	if id, ok := UserID(c); ok {
		return id
	}
	if id := SessionID(c); id != "" {
		return id
	}
	return c.ClientIP()
}
