package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/webmonitor/pkg/auth"
)

// NewSessionStore returns the in-memory store for "" or "memory", and a Redis
// store for redis:// and rediss:// URLs.
func NewSessionStore(ctx context.Context, sessionStore string, ttl time.Duration) (auth.SessionStore, error) {
	switch {
	case sessionStore == "" || sessionStore == "memory":
		return auth.NewMemoryStore(), nil
	case strings.HasPrefix(sessionStore, "redis://"), strings.HasPrefix(sessionStore, "rediss://"):
		store, err := auth.NewRedisStore(ctx, sessionStore, ttl)
		if err != nil {
			return nil, err
		}

		return store, nil
	default:
		return nil, fmt.Errorf("unsupported session store: %s", sessionStore)
	}
}
