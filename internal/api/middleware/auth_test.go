package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthenticator(t *testing.T) (*auth.MockAuthenticator, *auth.Session) {
	t.Helper()
	jwtService := auth.NewJWTService("test-secret-key-that-is-long-enough", 15*time.Minute)
	authenticator := auth.NewMockAuthenticator(jwtService, zap.NewNop(), auth.WithBcryptCost(bcrypt.MinCost))

	session, err := authenticator.Register(context.Background(), "Test User", "test@example.com", "secret1")
	require.NoError(t, err)
	return authenticator, session
}

func captureUser(captured **auth.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := GetUserFromContext(r.Context()); ok {
			*captured = user
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_ValidToken_Header(t *testing.T) {
	authenticator, session := newTestAuthenticator(t)

	var captured *auth.User
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()

	AuthMiddleware(authenticator)(captureUser(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, session.User.ID, captured.ID)
	assert.Equal(t, "test@example.com", captured.Email)
}

func TestAuthMiddleware_ValidToken_Cookie(t *testing.T) {
	authenticator, session := newTestAuthenticator(t)

	var token string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = GetToken(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: session.Token})
	rec := httptest.NewRecorder()

	AuthMiddleware(authenticator)(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.Token, token)
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	authenticator, _ := newTestAuthenticator(t)

	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	AuthMiddleware(authenticator)(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	authenticator, session := newTestAuthenticator(t)
	require.NoError(t, authenticator.Logout(context.Background(), session.Token))

	var captured *auth.User
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()

	AuthMiddleware(authenticator)(captureUser(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestOptionalAuthMiddleware(t *testing.T) {
	authenticator, session := newTestAuthenticator(t)

	t.Run("valid token sets user", func(t *testing.T) {
		var captured *auth.User
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+session.Token)
		rec := httptest.NewRecorder()

		OptionalAuthMiddleware(authenticator)(captureUser(&captured)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		assert.Equal(t, session.User.ID, captured.ID)
	})

	t.Run("invalid token passes through anonymous", func(t *testing.T) {
		var captured *auth.User
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()

		OptionalAuthMiddleware(authenticator)(captureUser(&captured)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, captured)
	})
}

func TestExtractToken(t *testing.T) {
	t.Run("cookie wins over header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
		req.Header.Set("Authorization", "Bearer from-header")
		assert.Equal(t, "from-cookie", ExtractToken(req))
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer from-header")
		assert.Equal(t, "from-header", ExtractToken(req))
	})

	t.Run("non bearer scheme ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		assert.Empty(t, ExtractToken(req))
	})
}

func TestGetUserID_Anonymous(t *testing.T) {
	assert.Empty(t, GetUserID(context.Background()))
	assert.Empty(t, GetToken(context.Background()))
}
