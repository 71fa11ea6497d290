package simulation

import (
	"math"
	"math/rand"
	"time"

	"github.com/okian/racepick/internal/domain/model"
)

// Default simulation configuration constants.
const (
	DefaultTrials = 20_000
)

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithTrials sets how many races are played per simulation.
func WithTrials(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.trials = n
		}
	}
}

// WithSeed makes the simulator deterministic.
func WithSeed(seed int64) Option {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // simulation, not crypto
	}
}

// Simulator plays Bernoulli races. It owns its random source and is not safe
// for concurrent use; give each goroutine its own Simulator.
type Simulator struct {
	trials int
	rng    *rand.Rand
}

// New creates a Simulator with configuration options.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		trials: DefaultTrials,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // simulation, not crypto
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trials returns the number of races played per simulation.
func (s *Simulator) Trials() int { return s.trials }

// Simulate plays the configured number of races with a per-game win
// percentage and returns the normalized outcome distribution.
func (s *Simulator) Simulate(winPct float64, race model.Race) (Distribution, error) {
	counts, err := s.Run(winPct, race)
	if err != nil {
		return Distribution{}, err
	}
	return Normalize(counts), nil
}

// Run plays the races and returns raw tallies.
func (s *Simulator) Run(winPct float64, race model.Race) (Counts, error) {
	if err := validate(winPct, race); err != nil {
		return Counts{}, err
	}
	var c Counts
	for i := 0; i < s.trials; i++ {
		c[s.play(winPct, race)]++
	}
	return c, nil
}

// play runs a single race to completion.
func (s *Simulator) play(winPct float64, race model.Race) Outcome {
	won, lost := 0, 0
	for won < race.Ours && lost < race.Theirs {
		if winPct > s.rng.Float64()*100 {
			won++
		} else {
			lost++
		}
	}
	return classify(won, lost, race)
}

func classify(won, lost int, race model.Race) Outcome {
	if lost == race.Theirs {
		switch {
		case won == 0:
			return ShutoutLoss
		case won == race.Ours-1:
			return HillLoss
		default:
			return Loss
		}
	}
	if lost == 0 {
		return ShutoutWin
	}
	return Win
}

func validate(winPct float64, race model.Race) error {
	if !race.Valid() {
		return &InvalidRaceError{Race: race}
	}
	if math.IsNaN(winPct) || winPct < 0 || winPct > 100 {
		return &InvalidProbabilityError{Value: winPct}
	}
	return nil
}
