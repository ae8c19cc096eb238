package stockflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each pending adjustment as a JSON string that expires with
// the adjustment.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore { return &RedisStore{rdb: rdb} }

func pendingKey(businessID, id uuid.UUID) string {
	return fmt.Sprintf("stock:pending:%s:%s", businessID, id)
}

func (s *RedisStore) Save(ctx context.Context, adj *Adjustment, ttl time.Duration) error {
	data, err := json.Marshal(adj)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, pendingKey(adj.BusinessID, adj.ID), data, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, businessID, id uuid.UUID) (*Adjustment, error) {
	data, err := s.rdb.Get(ctx, pendingKey(businessID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var adj Adjustment
	if err := json.Unmarshal(data, &adj); err != nil {
		return nil, fmt.Errorf("decode pending adjustment: %w", err)
	}
	return &adj, nil
}

func (s *RedisStore) Delete(ctx context.Context, businessID, id uuid.UUID) error {
	return s.rdb.Del(ctx, pendingKey(businessID, id)).Err()
}
