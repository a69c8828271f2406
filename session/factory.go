package session

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreType represents the type of session store.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// Redis key prefix for chat sessions.
const chatKeyPrefix = "chat:"

// NewStore creates a new session Store of the given type.
// Supports "memory" and "redis" driver types.
// For Redis, requires WithRedisClient option.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{}

	// Apply options
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case StoreTypeMemory:
		return &inMemoryStore{
			sessions: make(map[int64]*ChatSession),
		}, nil

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		ttl := config.redisTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		return &redisStore{
			client: config.redisClient,
			ttl:    ttl,
		}, nil

	default:
		return nil, ErrInvalidStoreType
	}
}

// inMemoryStore implements Store using an in-memory map with optimistic locking.
type inMemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*ChatSession
}

// Create implements Store. The stored value is a deep copy, matching the
// Redis driver where every Get unmarshals a fresh value.
func (s *inMemoryStore) Create(ctx context.Context, data *ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	s.sessions[data.ChatID] = data.clone()
	return nil
}

// Get implements Store. Returns a deep copy; callers own the result and
// may mutate it without affecting other readers.
func (s *inMemoryStore) Get(ctx context.Context, chatID int64) (*ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.sessions[chatID]
	if !exists {
		return nil, nil
	}
	return data.clone(), nil
}

// Update implements Store.
func (s *inMemoryStore) Update(ctx context.Context, data *ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.sessions[data.ChatID]
	if !exists {
		return ErrNotFound
	}

	if stored.Version != data.Version {
		return ErrVersionConflict
	}

	data.Version++
	data.UpdatedAt = time.Now()

	s.sessions[data.ChatID] = data.clone()
	return nil
}

// Delete implements Store.
func (s *inMemoryStore) Delete(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, chatID)
	return nil
}

// Close implements Store.
func (s *inMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	return nil
}

// redisStore implements Store using Redis with optimistic locking.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// Create implements Store.
func (s *redisStore) Create(ctx context.Context, data *ChatSession) error {
	key := chatKey(data.ChatID)
	now := time.Now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	val, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, val, s.ttl).Err()
}

// Get implements Store.
func (s *redisStore) Get(ctx context.Context, chatID int64) (*ChatSession, error) {
	key := chatKey(chatID)
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data ChatSession
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, err
	}

	// Refresh TTL on read
	_ = s.client.Expire(ctx, key, s.ttl).Err()

	return &data, nil
}

// Update implements Store.
func (s *redisStore) Update(ctx context.Context, data *ChatSession) error {
	key := chatKey(data.ChatID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var stored ChatSession
		if err := json.Unmarshal([]byte(val), &stored); err != nil {
			return err
		}

		if stored.Version != data.Version {
			return ErrVersionConflict
		}

		data.Version++
		data.UpdatedAt = time.Now()

		newVal, err := json.Marshal(data)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newVal, s.ttl)
			return nil
		})
		return err
	}, key)

	return err
}

// Delete implements Store.
func (s *redisStore) Delete(ctx context.Context, chatID int64) error {
	key := chatKey(chatID)
	return s.client.Del(ctx, key).Err()
}

// Close implements Store.
func (s *redisStore) Close() error {
	return s.client.Close()
}

// chatKey constructs the Redis key for a chat id.
func chatKey(chatID int64) string {
	return chatKeyPrefix + strconv.FormatInt(chatID, 10)
}
