package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signingKey = "test-signing-key"

func mintToken(t *testing.T, key, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestHMACValidator(t *testing.T) {
	validator := NewHMACValidator(signingKey)

	t.Run("valid token yields subject", func(t *testing.T) {
		claims, err := validator.ValidateToken(mintToken(t, signingKey, "wallet_1"))
		require.NoError(t, err)
		assert.Equal(t, "wallet_1", claims.Principal)
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		_, err := validator.ValidateToken(mintToken(t, "other-key", "wallet_1"))
		assert.Error(t, err)
	})

	t.Run("missing subject rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(signingKey))
		require.NoError(t, err)

		_, err = validator.ValidateToken(signed)
		assert.Error(t, err)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "wallet_1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(signingKey))
		require.NoError(t, err)

		_, err = validator.ValidateToken(signed)
		assert.Error(t, err)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := validator.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestRequirePrincipal(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := NewHMACValidator(signingKey)

	var seenPrincipal string
	protected := RequirePrincipal(validator, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPrincipal = GetPrincipal(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid bearer token passes principal through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/alerts/1", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, signingKey, "wallet_1"))
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "wallet_1", seenPrincipal)
	})

	t.Run("missing header gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/alerts/1", nil)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("non-bearer scheme gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/alerts/1", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid token gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/alerts/1", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, "other-key", "wallet_1"))
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestGetPrincipalAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetPrincipal(req.Context()))
}
