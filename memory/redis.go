package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "assistant:session:"

// RedisStore keeps each conversation as one JSON value with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client. A ttl of zero keeps sessions until evicted.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (Conversation, error) {
	b, err := s.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get session %s: %w", sessionID, err)
	}
	var conv Conversation
	if err := json.Unmarshal(b, &conv); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return conv, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, conv Conversation) error {
	b, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sessionID, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", sessionID, err)
	}
	return nil
}
