// Package service orchestrates the prediction pipeline: it loads roster
// snapshots, evaluates pairings on the worker pool, persists the report and
// answers race and lineup queries for the API and the console.
package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"github.com/okian/racepick/internal/adapters/mq/queue"
	"github.com/okian/racepick/internal/adapters/mq/worker"
	"github.com/okian/racepick/internal/adapters/repository"
	"github.com/okian/racepick/internal/domain/handicap"
	"github.com/okian/racepick/internal/domain/history"
	"github.com/okian/racepick/internal/domain/lineup"
	"github.com/okian/racepick/internal/domain/model"
	"github.com/okian/racepick/internal/domain/prediction"
	"github.com/okian/racepick/internal/domain/simulation"
	"github.com/okian/racepick/pkg/logger"
	"github.com/okian/racepick/pkg/metrics"
)

// Service implements the API dependencies for racepick.
type Service struct {
	mu sync.RWMutex

	store  repository.PredictionStore
	report *prediction.Report
	ranker *Ranker

	// Configuration
	trials      int
	seed        int64
	minSamples  int
	maxRadius   int
	workerCount int
	queueSize   int
	maxGames    int

	// State
	started bool
	builds  int

	logger logger.Logger
}

// New constructs a Service with default configuration. Without WithStore
// reports are kept in predictions.yaml in the working directory.
func New(opts ...Option) *Service {
	s := &Service{
		trials:      simulation.DefaultTrials,
		minSamples:  history.DefaultMinSamples,
		maxRadius:   history.DefaultMaxRadius,
		workerCount: runtime.NumCPU(),
		queueSize:   queue.DefaultCapacity,
		maxGames:    lineup.DefaultMaxGames,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewFileStore("predictions.yaml")
	}
	s.ranker = &Ranker{opt: lineup.New(lineup.WithMaxGames(s.maxGames))}
	return s
}

// Start prepares the service and picks up a previously persisted report.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	report, err := s.store.Load(ctx)
	switch {
	case err == nil:
		s.report = report
		s.logger.Info(ctx, "loaded prediction report",
			logger.String("backend", s.store.Backend()),
			logger.String("id", report.ID),
			logger.String("ours", report.OurTeam),
			logger.String("theirs", report.TheirTeam),
		)
	case errorsIsNotFound(err):
		s.logger.Info(ctx, "no prediction report yet", logger.String("backend", s.store.Backend()))
	default:
		return fmt.Errorf("start service: %w", err)
	}

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("trials", s.trials),
		logger.Int("maxGames", s.maxGames),
	)
	return nil
}

// Stop releases the store if it holds resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing store failed", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "service stopped")
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		return logger.Get().Named("service")
	}
	return s.logger
}

// Predict loads the roster snapshot at path and builds the report for us
// against them.
func (s *Service) Predict(ctx context.Context, path, us, them string) (*prediction.Report, error) {
	roster, err := repository.LoadSnapshot(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.BuildReport(ctx, roster, us, them)
}

// BuildReport evaluates every pairing of team us against team them,
// persists the report and makes it current.
func (s *Service) BuildReport(ctx context.Context, roster model.Roster, us, them string) (*prediction.Report, error) {
	ours, ok := roster.Team(us)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTeam, us)
	}
	theirs, ok := roster.Team(them)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTeam, them)
	}
	if len(ours.Players) == 0 || len(theirs.Players) == 0 {
		return nil, fmt.Errorf("%w: %s vs %s", ErrEmptyTeam, us, them)
	}

	start := time.Now()
	report, err := s.evaluate(ctx, ours, theirs)
	if err != nil {
		return nil, err
	}
	took := time.Since(start)
	metrics.RecordReportBuilt(took)

	log := s.log()
	for _, e := range report.Errors() {
		log.Warn(ctx, "pairing failed", logger.Error(e))
	}
	log.Info(ctx, "built prediction report",
		logger.String("id", report.ID),
		logger.String("ours", ours.Name),
		logger.String("theirs", theirs.Name),
		logger.Int("ok", report.Count(prediction.StatusOK)),
		logger.Int("noData", report.Count(prediction.StatusNoData)),
		logger.Int("errors", report.Count(prediction.StatusError)),
		logger.Duration("took", took),
	)

	if err := s.store.Save(ctx, report); err != nil {
		return report, fmt.Errorf("persist report: %w", err)
	}

	s.mu.Lock()
	s.report = report
	s.builds++
	s.mu.Unlock()
	return report, nil
}

// evaluate runs the pairings inline for a single worker and on the pool
// otherwise.
func (s *Service) evaluate(ctx context.Context, ours, theirs model.Team) (*prediction.Report, error) {
	if s.workerCount == 1 {
		report, err := prediction.Build(ctx, ours, theirs, s.evaluator(0), s.trials)
		if err != nil {
			return nil, err
		}
		for _, o := range report.Outcomes {
			metrics.RecordPairing(string(o.Status))
		}
		return report, nil
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	pool := worker.NewPool(s.workerCount, q, s.evaluator)
	outcomes, err := pool.Process(ctx, ours.Players, theirs.Players)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	return prediction.NewReport(ours, theirs, s.trials, outcomes), nil
}

// evaluator is the worker factory. Unseeded workers each own a clock-seeded
// simulator. Seeded builds derive a simulator per pairing from the seed and
// both names, so results repeat whatever the worker count.
func (s *Service) evaluator(i int) worker.Evaluator {
	agg := history.New(history.WithMinSamples(s.minSamples), history.WithMaxRadius(s.maxRadius))
	if s.seed != 0 {
		return seededEvaluator{agg: agg, trials: s.trials, seed: s.seed}
	}
	sim := simulation.New(
		simulation.WithTrials(s.trials),
		simulation.WithSeed(time.Now().UnixNano()+int64(i)),
	)
	return prediction.NewEvaluator(agg, worker.Instrument(sim, s.trials))
}

type seededEvaluator struct {
	agg    *history.Aggregator
	trials int
	seed   int64
}

func (e seededEvaluator) Evaluate(ours, theirs model.Player) (prediction.Pairing, error) {
	sim := simulation.New(
		simulation.WithTrials(e.trials),
		simulation.WithSeed(pairingSeed(e.seed, ours.Name, theirs.Name)),
	)
	return prediction.NewEvaluator(e.agg, worker.Instrument(sim, e.trials)).Evaluate(ours, theirs)
}

func pairingSeed(seed int64, ours, theirs string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ours))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(theirs))
	return seed ^ int64(h.Sum64()) //nolint:gosec // seed mixing
}

// Race resolves the handicap race for two ratings.
func (s *Service) Race(mine, theirs int) (model.Race, error) {
	return handicap.Resolve(mine, theirs)
}

// Predictions returns the current report, reading it from the store when
// this process has not built one. A missing report wraps
// repository.ErrNotFound.
func (s *Service) Predictions(ctx context.Context) (*prediction.Report, error) {
	s.mu.RLock()
	report := s.report
	s.mu.RUnlock()
	if report != nil {
		return report, nil
	}

	report, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}
	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
	return report, nil
}

// Optimize ranks our next pick against the current report.
func (s *Service) Optimize(ctx context.Context, q lineup.Query) (lineup.Ranking, error) {
	report, err := s.Predictions(ctx)
	if err != nil {
		return lineup.Ranking{}, err
	}
	return s.ranker.Optimize(q, report.Table())
}

// Ranker returns the optimizer used for lineup queries.
func (s *Service) Ranker() *Ranker { return s.ranker }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"backend":     s.store.Backend(),
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"trials":      s.trials,
		"maxGames":    s.maxGames,
		"builds":      s.builds,
	}
	if s.report != nil {
		stats["reportId"] = s.report.ID
		stats["ourTeam"] = s.report.OurTeam
		stats["theirTeam"] = s.report.TheirTeam
		stats["pairings"] = len(s.report.Outcomes)
		stats["scored"] = len(s.report.Table())
	}
	return stats
}

// Ranker wraps the lineup optimizer with metrics.
type Ranker struct {
	opt *lineup.Optimizer
}

// Optimize implements the console optimizer.
func (r *Ranker) Optimize(q lineup.Query, scores lineup.Scores) (lineup.Ranking, error) {
	start := time.Now()
	mode := "blind"
	if q.Constrained() {
		mode = "constrained"
	}
	ranking, err := r.opt.Optimize(q, scores)
	if err != nil {
		metrics.RecordError("optimizer", mode)
		return ranking, err
	}
	metrics.RecordOptimizerQuery(mode, ranking.Slates, time.Since(start))
	return ranking, nil
}
