package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CartSessionCookie identifies an anonymous shopper's cart
const CartSessionCookie = "cart_session"

const ownerContextKey contextKey = "cart_owner"

// CartSession resolves the cart owner: the user id when signed in, otherwise the anonymous
// session id, issuing a new session cookie on first visit. Run it after OptionalAuthMiddleware.
func CartSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := GetUserID(r.Context())
		if owner == "" {
			owner = AnonymousSession(r)
			if owner == "" {
				owner = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     CartSessionCookie,
					Value:    owner,
					Path:     "/",
					Expires:  time.Now().Add(30 * 24 * time.Hour),
					HttpOnly: true,
					Secure:   r.TLS != nil,
					SameSite: http.SameSiteLaxMode,
				})
			}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerContextKey, owner)))
	})
}

// AnonymousSession returns the anonymous session id carried by the request, if any
func AnonymousSession(r *http.Request) string {
	cookie, err := r.Cookie(CartSessionCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return ""
	}
	return cookie.Value
}

// GetCartOwner returns the owner resolved by CartSession
func GetCartOwner(ctx context.Context) string {
	owner, _ := ctx.Value(ownerContextKey).(string)
	return owner
}
