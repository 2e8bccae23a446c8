package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKV stores values as plain Redis strings under a configurable prefix.
type RedisKV struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisKV(rdb *redis.Client, prefix string) *RedisKV {
	if prefix == "" {
		prefix = "blogfeed"
	}
	return &RedisKV{rdb: rdb, prefix: prefix}
}

func (s *RedisKV) key(k string) string {
	return fmt.Sprintf("%s:kv:%s", s.prefix, k)
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return res, true, nil
}

func (s *RedisKV) Set(ctx context.Context, key, value string) error {
	// No expiry: lifecycle of durable data is managed by the callers.
	return s.rdb.Set(ctx, s.key(key), value, 0).Err()
}

func (s *RedisKV) Remove(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}

func (s *RedisKV) Close() error {
	return s.rdb.Close()
}
