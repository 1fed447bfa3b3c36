package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNameTooShort       = errors.New("name must be at least 2 characters")
	ErrInvalidEmail       = errors.New("please enter a valid email address")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a signed-in user together with its access token
type Session struct {
	User      User      `json:"user"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticator is the account collaborator the storefront talks to
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*User, error)
	ResetPassword(ctx context.Context, email string) error
}

type account struct {
	user         User
	passwordHash string
}

// MockAuthenticator keeps accounts in memory. Tokens are real JWTs; logout revokes the token id.
type MockAuthenticator struct {
	jwt        *JWTService
	logger     *zap.Logger
	resetDelay time.Duration
	cost       int

	mu      sync.RWMutex
	byEmail map[string]*account
	byID    map[string]*account
	revoked map[string]time.Time // token id -> expiry
}

type Option func(*MockAuthenticator)

// WithResetDelay sets how long ResetPassword pretends to wait for the mail provider
func WithResetDelay(d time.Duration) Option {
	return func(m *MockAuthenticator) { m.resetDelay = d }
}

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost
func WithBcryptCost(cost int) Option {
	return func(m *MockAuthenticator) { m.cost = cost }
}

func NewMockAuthenticator(jwtService *JWTService, logger *zap.Logger, opts ...Option) *MockAuthenticator {
	m := &MockAuthenticator{
		jwt:        jwtService,
		logger:     logger.Named("auth"),
		resetDelay: time.Second,
		cost:       bcrypt.DefaultCost,
		byEmail:    make(map[string]*account),
		byID:       make(map[string]*account),
		revoked:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (m *MockAuthenticator) Register(_ context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if len([]rune(name)) < 2 {
		return nil, ErrNameTooShort
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	hash, err := HashPassword(password, m.cost)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if _, taken := m.byEmail[email]; taken {
		m.mu.Unlock()
		return nil, ErrEmailTaken
	}
	acc := &account{
		user: User{
			ID:        uuid.New().String(),
			Name:      name,
			Email:     email,
			CreatedAt: time.Now(),
		},
		passwordHash: hash,
	}
	m.byEmail[email] = acc
	m.byID[acc.user.ID] = acc
	m.mu.Unlock()

	m.logger.Info("user registered", zap.String("user_id", acc.user.ID))
	return m.issue(acc.user)
}

func (m *MockAuthenticator) Login(_ context.Context, email, password string) (*Session, error) {
	m.mu.RLock()
	acc, ok := m.byEmail[normalizeEmail(email)]
	m.mu.RUnlock()

	if !ok || !CheckPassword(password, acc.passwordHash) {
		return nil, ErrInvalidCredentials
	}
	return m.issue(acc.user)
}

func (m *MockAuthenticator) issue(u User) (*Session, error) {
	token, claims, err := m.jwt.GenerateAccessToken(u)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Logout revokes the token. Invalid or expired tokens are already signed out.
func (m *MockAuthenticator) Logout(_ context.Context, token string) error {
	claims, err := m.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, exp := range m.revoked {
		if exp.Before(now) {
			delete(m.revoked, id)
		}
	}
	m.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}

func (m *MockAuthenticator) CurrentUser(_ context.Context, token string) (*User, error) {
	claims, err := m.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, revoked := m.revoked[claims.ID]; revoked {
		return nil, ErrInvalidToken
	}
	acc, ok := m.byID[claims.UserID]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := acc.user
	return &u, nil
}

// ResetPassword simulates sending a reset link. Unknown addresses succeed so accounts cannot be probed.
func (m *MockAuthenticator) ResetPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}

	timer := time.NewTimer(m.resetDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	m.mu.RLock()
	_, known := m.byEmail[email]
	m.mu.RUnlock()
	m.logger.Info("password reset requested", zap.Bool("known_account", known))
	return nil
}
