package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/dukex/webmonitor/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestGenerateToken(t *testing.T) {
	token, err := auth.GenerateToken()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), token)

	other, err := auth.GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestAuthenticator_LoginLogout(t *testing.T) {
	ctx := context.Background()
	a := auth.NewAuthenticator(slog.Default(), "s3cret", auth.NewMemoryStore())

	token, err := a.Login(ctx, "s3cret")
	require.NoError(t, err)
	assert.Len(t, token, 2*auth.TokenBytes)
	assert.True(t, a.Authenticated(ctx, token))

	require.NoError(t, a.Logout(ctx, token))
	assert.False(t, a.Authenticated(ctx, token))
}

func TestAuthenticator_WrongPassword(t *testing.T) {
	a := auth.NewAuthenticator(slog.Default(), "s3cret", auth.NewMemoryStore())

	token, err := a.Login(context.Background(), "guess")

	require.ErrorIs(t, err, auth.ErrInvalidPassword)
	assert.Empty(t, token)
}

func TestAuthenticator_DefaultPassword(t *testing.T) {
	a := auth.NewAuthenticator(slog.Default(), "", auth.NewMemoryStore())

	_, err := a.Login(context.Background(), auth.DefaultPassword)
	require.NoError(t, err)
}

func TestAuthenticator_UnknownAndEmptyTokens(t *testing.T) {
	ctx := context.Background()
	a := auth.NewAuthenticator(slog.Default(), "s3cret", auth.NewMemoryStore())

	assert.False(t, a.Authenticated(ctx, ""))
	assert.False(t, a.Authenticated(ctx, "deadbeef"))
	assert.NoError(t, a.Logout(ctx, ""))
	assert.NoError(t, a.Logout(ctx, "deadbeef"))
}

func TestAuthenticator_RateLimit(t *testing.T) {
	ctx := context.Background()
	a := auth.NewAuthenticator(slog.Default(), "s3cret", auth.NewMemoryStore(),
		auth.WithLoginLimit(rate.Limit(0), 2))

	_, err := a.Login(ctx, "a")
	require.ErrorIs(t, err, auth.ErrInvalidPassword)

	_, err = a.Login(ctx, "b")
	require.ErrorIs(t, err, auth.ErrInvalidPassword)

	_, err = a.Login(ctx, "s3cret")
	require.ErrorIs(t, err, auth.ErrTooManyAttempts)
}

type brokenStore struct {
	auth.MemoryStore
}

func (s *brokenStore) Has(context.Context, string) (bool, error) {
	return false, errors.New("store offline")
}

func TestAuthenticator_StoreErrorIsUnauthenticated(t *testing.T) {
	a := auth.NewAuthenticator(slog.Default(), "s3cret", &brokenStore{})

	assert.False(t, a.Authenticated(context.Background(), "token"))
}
