package service

import (
	"github.com/okian/racepick/internal/adapters/repository"
	"github.com/okian/racepick/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets where reports are persisted.
func WithStore(store repository.PredictionStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithTrials sets how many races each simulation plays.
func WithTrials(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.trials = n
		}
	}
}

// WithSeed makes report builds reproducible. Zero seeds from the clock.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithMinSamples sets how many games the aggregator wants before it stops
// widening.
func WithMinSamples(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minSamples = n
		}
	}
}

// WithMaxRadius caps how far the aggregator widens.
func WithMaxRadius(r int) Option {
	return func(s *Service) {
		if r >= 0 {
			s.maxRadius = r
		}
	}
}

// WithWorkerCount sets the number of evaluation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the job queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxGames caps the slate length the optimizer accepts.
func WithMaxGames(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxGames = n
		}
	}
}
