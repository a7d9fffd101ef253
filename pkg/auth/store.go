package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// SessionStore holds the set of valid session tokens.
type SessionStore interface {
	Add(ctx context.Context, token string) error
	Has(ctx context.Context, token string) (bool, error)
	Remove(ctx context.Context, token string) error
	Close() error
}

// MemoryStore keeps tokens in process memory; they are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]struct{})}
}

func (s *MemoryStore) Add(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token] = struct{}{}

	return nil
}

func (s *MemoryStore) Has(_ context.Context, token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tokens[token]

	return ok, nil
}

func (s *MemoryStore) Remove(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tokens, token)

	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// DefaultKeyPrefix namespaces session keys in Redis.
const DefaultKeyPrefix = "webmonitor:session:"

// RedisStore keeps tokens as expiring Redis keys so sessions survive restarts
// and are shared between instances.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to url (redis://[:password@]host:port/db). A zero ttl
// keeps sessions until logout.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreClient(client, DefaultKeyPrefix, ttl), nil
}

func NewRedisStoreClient(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	} else if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

func (s *RedisStore) Add(ctx context.Context, token string) error {
	err := s.client.Set(ctx, s.key(token), time.Now().UTC().Format(time.RFC3339), s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

func (s *RedisStore) Has(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up session: %w", err)
	}

	return n > 0, nil
}

func (s *RedisStore) Remove(ctx context.Context, token string) error {
	err := s.client.Del(ctx, s.key(token)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
