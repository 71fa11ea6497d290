package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/racepick/internal/domain/prediction"
	"github.com/okian/racepick/pkg/metrics"
)

// DefaultRedisKey is where the report lives unless WithKey says otherwise.
const DefaultRedisKey = "racepick:predictions"

// RedisClient is the subset of *redis.Client the store uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps the report as a JSON value under a single key.
type RedisStore struct {
	client RedisClient
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore with configuration options.
func NewRedisStore(client RedisClient, opts ...Option) *RedisStore {
	s := &RedisStore{client: client, key: DefaultRedisKey}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend implements PredictionStore.
func (s *RedisStore) Backend() string { return "redis" }

// Key returns the Redis key the report is stored under.
func (s *RedisStore) Key() string { return s.key }

// TTL returns how long a saved report lives; zero means forever.
func (s *RedisStore) TTL() time.Duration { return s.ttl }

// Save stores the report.
func (s *RedisStore) Save(ctx context.Context, r *prediction.Report) (err error) {
	defer func() { metrics.RecordStoreOperation(s.Backend(), "save", err) }()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode predictions: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Load fetches the report.
func (s *RedisStore) Load(ctx context.Context) (r *prediction.Report, err error) {
	defer func() { metrics.RecordStoreOperation(s.Backend(), "load", err) }()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	r = new(prediction.Report)
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptReport, s.key, err)
	}
	return r, nil
}
