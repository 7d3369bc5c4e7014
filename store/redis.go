package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig holds connection settings for RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds every individual command. Zero means 5s.
	Timeout time.Duration
}

// RedisStore keeps every key as a plain Redis string.
type RedisStore struct {
	rdb     *redis.Client
	timeout time.Duration
	log     *zap.Logger
}

func NewRedisStore(cfg RedisConfig, log *zap.Logger) (*RedisStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	s := &RedisStore{rdb: rdb, timeout: timeout, log: log.With(zap.String("backend", "redis"))}

	ctx, cancel := s.ctx()
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	s.log.Info("connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return s, nil
}

func (s *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *RedisStore) Get(key string) ([]byte, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *RedisStore) Set(key string, value []byte) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *RedisStore) Remove(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.rdb.Del(ctx, key).Err()
}

func (s *RedisStore) Keys(prefix string) ([]string, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	var keys []string
	iter := s.rdb.Scan(ctx, 0, escapeGlob(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// escapeGlob quotes the characters Redis MATCH patterns treat specially.
func escapeGlob(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
