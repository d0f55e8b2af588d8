package kvstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "kv:v1:"

type redisStore struct {
	client *redis.Client
}

// NewRedis builds a store that keeps each collection in a Redis hash.
func NewRedis(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	value, err := s.client.HGet(ctx, redisKeyPrefix+collection, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s/%s: %w", collection, key, err)
	}
	return value, nil
}

func (s *redisStore) Set(ctx context.Context, collection, key string, value []byte) error {
	if err := s.client.HSet(ctx, redisKeyPrefix+collection, key, value).Err(); err != nil {
		return fmt.Errorf("redis set %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *redisStore) GetAll(ctx context.Context, collection string) ([][]byte, error) {
	values, err := s.client.HVals(ctx, redisKeyPrefix+collection).Result()
	if err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", collection, err)
	}
	out := make([][]byte, 0, len(values))
	for _, v := range values {
		out = append(out, []byte(v))
	}
	return out, nil
}

func (s *redisStore) Delete(ctx context.Context, collection, key string) error {
	if err := s.client.HDel(ctx, redisKeyPrefix+collection, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s/%s: %w", collection, key, err)
	}
	return nil
}
