// Package auth implements the shared-password login and its session tokens.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
)

// DefaultPassword is used when no password is configured.
const DefaultPassword = "changeme"

// TokenBytes is the amount of randomness in a session token.
const TokenBytes = 32

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrTooManyAttempts = errors.New("too many login attempts")
)

type Authenticator struct {
	password []byte
	store    SessionStore
	limiter  *rate.Limiter
	logger   *slog.Logger
}

type Option func(*Authenticator)

// WithLoginLimit allows burst login attempts, refilled at r per second.
func WithLoginLimit(r rate.Limit, burst int) Option {
	return func(a *Authenticator) {
		a.limiter = rate.NewLimiter(r, burst)
	}
}

func NewAuthenticator(logger *slog.Logger, password string, store SessionStore, opts ...Option) *Authenticator {
	logger = logger.With("module", "auth")

	if password == "" {
		password = DefaultPassword
	}

	if password == DefaultPassword {
		logger.Warn("Using the default password, set APP_PASSWORD to change it")
	}

	a := &Authenticator{
		password: []byte(password),
		store:    store,
		limiter:  rate.NewLimiter(rate.Limit(1), 10),
		logger:   logger,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Login checks password and returns a new session token.
func (a *Authenticator) Login(ctx context.Context, password string) (string, error) {
	if !a.limiter.Allow() {
		a.logger.WarnContext(ctx, "Login rate limit exceeded")

		return "", ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(password), a.password) != 1 {
		a.logger.WarnContext(ctx, "Login failed")

		return "", ErrInvalidPassword
	}

	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	err = a.store.Add(ctx, token)
	if err != nil {
		return "", err
	}

	a.logger.InfoContext(ctx, "Login succeeded")

	return token, nil
}

// Authenticated reports whether token belongs to an active session. Store
// errors count as unauthenticated.
func (a *Authenticator) Authenticated(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	ok, err := a.store.Has(ctx, token)
	if err != nil {
		a.logger.ErrorContext(ctx, "Session lookup failed", "error", err)

		return false
	}

	return ok
}

// Logout ends the session of token. Unknown or empty tokens are ignored.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	return a.store.Remove(ctx, token)
}

func (a *Authenticator) Close() error {
	return a.store.Close()
}

// GenerateToken returns TokenBytes random bytes as lowercase hex.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenBytes)

	_, err := rand.Read(buf)
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
