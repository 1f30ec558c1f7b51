package otp

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codePrefix     = "otp:code:"
	cooldownPrefix = "otp:cooldown:"
)

// Store keeps issued codes and resend cooldowns.
type Store interface {
	SaveCode(ctx context.Context, identifier, code string, ttl time.Duration) error
	LoadCode(ctx context.Context, identifier string) (string, error)
	DeleteCode(ctx context.Context, identifier string) error
	// ReserveCooldown marks the identifier as recently served. It returns
	// false when a previous reservation is still live.
	ReserveCooldown(ctx context.Context, identifier string, d time.Duration) (bool, error)
}

// RedisStore keeps codes in Redis with native expiry.
type RedisStore struct {
	cache *redis.Client
}

// NewRedisStore builds a Redis-backed code store.
func NewRedisStore(cache *redis.Client) *RedisStore {
	return &RedisStore{cache: cache}
}

func (s *RedisStore) SaveCode(ctx context.Context, identifier, code string, ttl time.Duration) error {
	return s.cache.Set(ctx, codePrefix+identifier, code, ttl).Err()
}

func (s *RedisStore) LoadCode(ctx context.Context, identifier string) (string, error) {
	code, err := s.cache.Get(ctx, codePrefix+identifier).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

func (s *RedisStore) DeleteCode(ctx context.Context, identifier string) error {
	return s.cache.Del(ctx, codePrefix+identifier).Err()
}

func (s *RedisStore) ReserveCooldown(ctx context.Context, identifier string, d time.Duration) (bool, error) {
	return s.cache.SetNX(ctx, cooldownPrefix+identifier, "1", d).Result()
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryStore is an in-process store for development and tests.
type MemoryStore struct {
	mu        sync.Mutex
	codes     map[string]memoryEntry
	cooldowns map[string]time.Time
	now       func() time.Time
}

// NewMemoryStore constructs an in-memory code store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		codes:     make(map[string]memoryEntry),
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
}

func (s *MemoryStore) SaveCode(_ context.Context, identifier, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[identifier] = memoryEntry{value: code, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) LoadCode(_ context.Context, identifier string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.codes[identifier]
	if !ok || s.now().After(entry.expires) {
		delete(s.codes, identifier)
		return "", nil
	}
	return entry.value, nil
}

func (s *MemoryStore) DeleteCode(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, identifier)
	return nil
}

func (s *MemoryStore) ReserveCooldown(_ context.Context, identifier string, d time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if until, ok := s.cooldowns[identifier]; ok && s.now().Before(until) {
		return false, nil
	}
	s.cooldowns[identifier] = s.now().Add(d)
	return true, nil
}
