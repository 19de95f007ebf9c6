package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	redis "github.com/redis/go-redis/v9"
)

// Store is a keyed TTL store for single-use values such as login nonces.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Take returns the value and deletes it. ok is false when the key is
	// missing or expired.
	Take(ctx context.Context, key string) (value string, ok bool, err error)
}

// Connect returns a Redis client or nil when addr is empty or unreachable.
func Connect(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil
	}
	return client
}

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.GetDel(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis getdel: %w", err)
	}
	return value, true, nil
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is the single-instance fallback. The LRU bound keeps a flood
// of nonce requests from growing memory without limit.
type MemoryStore struct {
	mu    sync.Mutex
	items *lru.Cache
	now   func() time.Time
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	items, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{items: items, now: time.Now}, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Add(key, memoryEntry{value: value, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *MemoryStore) Take(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.items.Get(key)
	if !ok {
		return "", false, nil
	}
	s.items.Remove(key)

	entry := raw.(memoryEntry)
	if !s.now().Before(entry.expiresAt) {
		return "", false, nil
	}
	return entry.value, true, nil
}
