package repository

import "time"

// Option applies a configuration option to the RedisStore.
type Option func(*RedisStore)

// WithKey sets the Redis key.
func WithKey(key string) Option {
	return func(s *RedisStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithTTL expires the stored report after ttl. Zero keeps it forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}
