// Package clerk verifies Clerk session tokens and webhooks and looks up user
// profiles.
package clerk

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the cookie Clerk's frontend uses to carry the session token.
const SessionCookie = "__session"

var (
	// ErrNoToken is returned when a request carries no session token.
	ErrNoToken = errors.New("no session token")
	// ErrInvalidToken is returned when a session token fails verification.
	ErrInvalidToken = errors.New("invalid session token")
)

// Claims are the session token claims BarGuru relies on.
type Claims struct {
	jwt.RegisteredClaims
	SessionID       string `json:"sid,omitempty"`
	AuthorizedParty string `json:"azp,omitempty"`
}

// UserID returns the Clerk user id carried in the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// Verifier checks networkless session tokens against the instance's PEM public key.
type Verifier struct {
	key               *rsa.PublicKey
	authorizedParties []string
	leeway            time.Duration
}

// NewVerifier parses the instance public key. Keys copied from environment
// variables often carry escaped newlines, which are restored here.
// authorizedParties, when non-empty, restricts the azp claim.
func NewVerifier(pemKey string, authorizedParties []string) (*Verifier, error) {
	pemKey = strings.ReplaceAll(strings.TrimSpace(pemKey), `\n`, "\n")
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse clerk public key: %w", err)
	}
	return &Verifier{key: key, authorizedParties: authorizedParties, leeway: 5 * time.Second}, nil
}

// Verify validates a raw session token.
func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return v.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if len(v.authorizedParties) > 0 && claims.AuthorizedParty != "" &&
		!slices.Contains(v.authorizedParties, claims.AuthorizedParty) {
		return nil, fmt.Errorf("%w: unauthorized party %q", ErrInvalidToken, claims.AuthorizedParty)
	}
	return claims, nil
}

// VerifyRequest reads the token from the Authorization header or, failing
// that, the session cookie, and verifies it.
func (v *Verifier) VerifyRequest(r *http.Request) (*Claims, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return nil, ErrNoToken
	}
	return v.Verify(token)
}

// TokenFromRequest extracts the session token from a request.
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
