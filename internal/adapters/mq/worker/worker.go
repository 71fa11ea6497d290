// Package worker evaluates pairing jobs in parallel. Each worker owns its own
// Evaluator, and with it a private simulator RNG.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/racepick/internal/adapters/mq/queue"
	"github.com/okian/racepick/internal/domain/model"
	"github.com/okian/racepick/internal/domain/prediction"
	"github.com/okian/racepick/internal/domain/simulation"
	"github.com/okian/racepick/pkg/logger"
	"github.com/okian/racepick/pkg/metrics"
)

// activityInterval is how often the busy worker gauge is refreshed.
const activityInterval = 250 * time.Millisecond

// Evaluator predicts a single pairing.
type Evaluator interface {
	Evaluate(ours, theirs model.Player) (prediction.Pairing, error)
}

// Factory builds the Evaluator owned by worker i. Implementations should
// give every worker its own simulator.
type Factory func(i int) Evaluator

// Queue is what the pool needs from a job queue.
type Queue interface {
	Put(ctx context.Context, j queue.Job) error
	Dequeue(ctx context.Context) <-chan queue.Job
	Close() error
}

// Result is an evaluated job.
type Result struct {
	Seq     int
	Outcome prediction.Outcome
}

// Worker pulls jobs off a queue and evaluates them.
type Worker struct {
	queue  Queue
	eval   Evaluator
	name   string
	logger logger.Logger

	// active is shared with the pool for the busy gauge.
	active *atomic.Int32
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, eval Evaluator, opts ...Option) *Worker {
	w := &Worker{
		queue:  q,
		eval:   eval,
		name:   "worker",
		logger: logger.Get().Named("worker"),
		active: new(atomic.Int32),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run evaluates jobs until the queue is drained or ctx is done. It returns
// nil on a drained queue and the context error otherwise.
func (w *Worker) Run(ctx context.Context, emit func(Result)) error {
	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j, ok := <-jobs:
			if !ok {
				return nil
			}
			metrics.RecordQueueDequeue()
			emit(w.process(ctx, j))
		}
	}
}

func (w *Worker) process(ctx context.Context, j queue.Job) Result {
	w.active.Add(1)
	start := time.Now()
	defer func() {
		w.active.Add(-1)
		metrics.RecordWorkerLatency(time.Since(start))
	}()

	p, err := w.eval.Evaluate(j.Ours, j.Theirs)
	o := prediction.NewOutcome(j.Ours.Name, j.Theirs.Name, p, err)
	metrics.RecordPairing(string(o.Status))

	switch o.Status {
	case prediction.StatusError:
		metrics.RecordError("worker", "evaluate")
		w.logger.Error(ctx, "pairing evaluation failed",
			logger.String("ours", j.Ours.Name),
			logger.String("theirs", j.Theirs.Name),
			logger.Error(err),
		)
	case prediction.StatusNoData:
		w.logger.Debug(ctx, "pairing has no history",
			logger.String("ours", j.Ours.Name),
			logger.String("theirs", j.Theirs.Name),
		)
	}
	return Result{Seq: j.Seq, Outcome: o}
}

// collector gathers results from every worker.
type collector struct {
	mu       sync.Mutex
	outcomes []prediction.Outcome
	filled   int
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[r.Seq] = r.Outcome
	c.filled++
}

// Pool fans a cross product of pairings out over a fixed set of workers.
// A Pool closes its queue when it is done and is not reusable.
type Pool struct {
	workers []*Worker
	queue   Queue
	active  atomic.Int32
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers, each with an Evaluator from
// factory. A non-positive workerCount uses one worker per CPU.
func NewPool(workerCount int, q Queue, factory Factory) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		w := NewWorker(q, factory(i), WithName("worker-"+strconv.Itoa(i)))
		w.active = &p.active
		p.workers[i] = w
	}
	metrics.UpdateWorkers(workerCount, 0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns how many workers are evaluating a pairing right now.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Process evaluates every pairing of ours against theirs and returns the
// outcomes in roster order, ours-major. Evaluation errors are recorded in
// the outcomes; only cancellation fails the call.
func (p *Pool) Process(ctx context.Context, ours, theirs []model.Player) ([]prediction.Outcome, error) {
	total := len(ours) * len(theirs)
	c := &collector{outcomes: make([]prediction.Outcome, total)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer func() { _ = p.queue.Close() }()
		seq := 0
		for _, a := range ours {
			for _, b := range theirs {
				if err := p.queue.Put(gctx, queue.Job{Seq: seq, Ours: a, Theirs: b}); err != nil {
					return err
				}
				seq++
			}
		}
		return nil
	})
	for _, w := range p.workers {
		w := w
		g.Go(func() error { return w.Run(gctx, c.add) })
	}

	stop := p.reportActivity(gctx)
	err := g.Wait()
	stop()
	metrics.UpdateWorkers(len(p.workers), 0)
	if err != nil {
		p.logger.Warn(ctx, "pairing evaluation stopped",
			logger.Int("done", c.filled),
			logger.Int("total", total),
			logger.Error(err),
		)
		return nil, fmt.Errorf("evaluate pairings: %w", err)
	}
	return c.outcomes, nil
}

// reportActivity publishes the busy worker gauge until the returned func is
// called.
func (p *Pool) reportActivity(ctx context.Context) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(activityInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				metrics.UpdateWorkers(len(p.workers), p.Active())
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// Instrument wraps a simulator so every call is recorded in metrics.
func Instrument(sim prediction.Simulator, trials int) prediction.Simulator {
	return instrumented{sim: sim, trials: trials}
}

type instrumented struct {
	sim    prediction.Simulator
	trials int
}

func (s instrumented) Simulate(winPct float64, race model.Race) (d simulation.Distribution, err error) {
	start := time.Now()
	d, err = s.sim.Simulate(winPct, race)
	if err != nil {
		metrics.RecordError("simulation", "simulate")
		return d, err
	}
	metrics.RecordSimulation(race.String(), s.trials, time.Since(start))
	return d, nil
}
