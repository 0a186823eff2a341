package position

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Settings selects and configures a Store backend.
type Settings struct {
	Backend string
	DBPath  string
	Redis   RedisConfig
	TTL     time.Duration
}

// Open builds the configured backend. An empty backend means SQLite.
func Open(ctx context.Context, s Settings, opts ...Option) (Store, error) {
	opts = append([]Option{WithTTL(s.TTL)}, opts...)

	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case "", BackendSQLite:
		return NewSQLiteStore(s.DBPath, opts...)
	case BackendRedis:
		return NewRedisStore(ctx, s.Redis, opts...)
	case BackendMemory:
		return NewMemoryStore(opts...), nil
	default:
		return nil, fmt.Errorf("unknown position backend %q", s.Backend)
	}
}
