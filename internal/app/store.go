package service

import (
	"github.com/redis/go-redis/v9"

	"github.com/okian/racepick/internal/adapters/repository"
	"github.com/okian/racepick/internal/config"
)

// redisStore closes its client when the service stops.
type redisStore struct {
	*repository.RedisStore
	client *redis.Client
}

func (s redisStore) Close() error { return s.client.Close() }

// NewStore picks the prediction store from configuration: Redis when
// redis_addr is set, the YAML file otherwise.
func NewStore(cfg *config.Config) repository.PredictionStore {
	if cfg.RedisAddr == "" {
		return repository.NewFileStore(cfg.PredictionsPath)
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return redisStore{
		RedisStore: repository.NewRedisStore(client,
			repository.WithKey(cfg.RedisKey),
			repository.WithTTL(cfg.RedisTTL),
		),
		client:     client,
	}
}

// FromConfig builds a Service from configuration. Extra options are applied
// last.
func FromConfig(cfg *config.Config, opts ...Option) *Service {
	base := []Option{
		WithStore(NewStore(cfg)),
		WithTrials(cfg.Trials),
		WithSeed(cfg.Seed),
		WithMinSamples(cfg.MinSamples),
		WithMaxRadius(cfg.MaxRadius),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithMaxGames(cfg.MaxGames),
	}
	return New(append(base, opts...)...)
}
