package clerk

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		SessionID:       "sess_1",
		AuthorizedParty: "http://localhost:3000",
	}
}

func TestVerifier_Verify(t *testing.T) {
	key, pemKey := newTestKey(t)
	v, err := NewVerifier(pemKey, []string{"http://localhost:3000"})
	require.NoError(t, err)

	claims, err := v.Verify(signToken(t, key, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user_123", claims.UserID())
	assert.Equal(t, "sess_1", claims.SessionID)
}

func TestVerifier_Rejects(t *testing.T) {
	key, pemKey := newTestKey(t)
	otherKey, _ := newTestKey(t)
	v, err := NewVerifier(pemKey, []string{"http://localhost:3000"})
	require.NoError(t, err)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	noSubject := validClaims()
	noSubject.Subject = ""

	wrongParty := validClaims()
	wrongParty.AuthorizedParty = "https://evil.example"

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":       signToken(t, key, expired),
		"no subject":    signToken(t, key, noSubject),
		"wrong party":   signToken(t, key, wrongParty),
		"no expiry":     signToken(t, key, noExpiry),
		"wrong key":     signToken(t, otherKey, validClaims()),
		"wrong method":  hmacToken,
		"garbage token": "not-a-jwt",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewVerifier_EscapedNewlines(t *testing.T) {
	key, pemKey := newTestKey(t)
	v, err := NewVerifier(strings.ReplaceAll(pemKey, "\n", `\n`), nil)
	require.NoError(t, err)

	_, err = v.Verify(signToken(t, key, validClaims()))
	assert.NoError(t, err)

	_, err = NewVerifier("not a key", nil)
	assert.Error(t, err)
}

func TestVerifyRequest(t *testing.T) {
	key, pemKey := newTestKey(t)
	v, err := NewVerifier(pemKey, nil)
	require.NoError(t, err)
	token := signToken(t, key, validClaims())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = v.VerifyRequest(req)
	assert.ErrorIs(t, err, ErrNoToken)

	req.Header.Set("Authorization", "Bearer "+token)
	claims, err := v.VerifyRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "user_123", claims.UserID())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	claims, err = v.VerifyRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "user_123", claims.UserID())
}
