package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/storefront/internal/auth"
)

// AccessTokenCookie carries the JWT for browser clients
const AccessTokenCookie = "access_token"

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ExtractToken extracts JWT token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// UserResolver maps an access token to its user; auth.Authenticator implements it
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*auth.User, error)
}

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

func withUser(r *http.Request, user *auth.User, token string) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	ctx = context.WithValue(ctx, tokenContextKey, token)
	return r.WithContext(ctx)
}

// AuthMiddleware rejects requests without a valid, unrevoked token
func AuthMiddleware(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := resolver.CurrentUser(r.Context(), token)
			if err != nil {
				respondError(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, withUser(r, user, token))
		})
	}
}

// OptionalAuthMiddleware adds the user to the context when a valid token is present
func OptionalAuthMiddleware(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := ExtractToken(r); token != "" {
				if user, err := resolver.CurrentUser(r.Context(), token); err == nil {
					r = withUser(r, user, token)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext retrieves the signed-in user from the request context
func GetUserFromContext(ctx context.Context) (*auth.User, bool) {
	user, ok := ctx.Value(userContextKey).(*auth.User)
	return user, ok
}

// GetUserID returns the signed-in user's id, or "" for anonymous requests
func GetUserID(ctx context.Context) string {
	user, ok := GetUserFromContext(ctx)
	if !ok {
		return ""
	}
	return user.ID
}

// GetToken returns the access token the request authenticated with
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}
