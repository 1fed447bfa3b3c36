package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"go.uber.org/zap"
)

// CartMerger folds an anonymous cart into a signed-in user's cart
type CartMerger interface {
	Merge(ctx context.Context, from, to string) error
}

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	authenticator auth.Authenticator
	carts         CartMerger
	logger        *zap.Logger
}

func NewAuthHandlers(authenticator auth.Authenticator, carts CartMerger, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authenticator: authenticator,
		carts:         carts,
		logger:        logger.Named("auth"),
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	User    auth.User `json:"user"`
	Message string    `json:"message,omitempty"`
}

// authStatus maps authenticator errors to HTTP status codes
func authStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, auth.ErrNameTooShort),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrPasswordTooShort):
		return http.StatusBadRequest, true
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, true
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrUserNotFound):
		return http.StatusUnauthorized, true
	}
	return 0, false
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.authenticator.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	h.signIn(w, r, session)

	respondJSON(w, http.StatusCreated, AuthResponse{User: session.User, Message: "Registration successful"})
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.authenticator.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	h.signIn(w, r, session)

	respondJSON(w, http.StatusOK, AuthResponse{User: session.User, Message: "Login successful"})
}

// signIn sets the access token cookie and moves the anonymous cart over to the user
func (h *AuthHandlers) signIn(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	anonymous := middleware.AnonymousSession(r)
	if anonymous == "" {
		return
	}
	if err := h.carts.Merge(r.Context(), anonymous, session.User.ID); err != nil {
		h.logger.Warn("merge anonymous cart",
			zap.String("user_id", session.User.ID),
			zap.Error(err),
		)
	}
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetToken(r.Context())
	if token == "" {
		token = middleware.ExtractToken(r)
	}
	if token != "" {
		if err := h.authenticator.Logout(r.Context(), token); err != nil {
			h.logger.Warn("logout", zap.Error(err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.authenticator.ResetPassword(r.Context(), req.Email); err != nil {
		if r.Context().Err() != nil {
			return
		}
		respondDomainError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "If an account exists for that email, a reset link has been sent",
	})
}
