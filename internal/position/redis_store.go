package position

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const defaultRedisPrefix = "subview:position:"

// RedisConfig holds the connection settings for RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps positions in Redis and lets Redis expire them.
type RedisStore struct {
	client *redis.Client
	prefix string
	opts   options
}

func NewRedisStore(ctx context.Context, cfg RedisConfig, opts ...Option) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		opts:   buildOptions(opts),
	}, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Put(ctx context.Context, key string, ms int64) error {
	if key == "" {
		return ErrEmptyKey
	}
	payload, err := encodeRecord(ms)
	if err != nil {
		return storageErr("put", key, err)
	}
	return storageErr("put", key, s.client.Set(ctx, s.key(key), payload, s.opts.ttl).Err())
}

func (s *RedisStore) Get(ctx context.Context, key string) (int64, bool, error) {
	if key == "" {
		return 0, false, ErrEmptyKey
	}
	payload, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, storageErr("get", key, err)
	}
	rec, err := decodeRecord(payload)
	if err != nil {
		return 0, false, storageErr("get", key, err)
	}
	return rec.LastSeekMs, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return storageErr("delete", key, s.client.Del(ctx, s.key(key)).Err())
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
