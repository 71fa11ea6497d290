package prediction

import (
	"errors"
	"fmt"

	"github.com/okian/racepick/internal/domain/handicap"
	"github.com/okian/racepick/internal/domain/history"
	"github.com/okian/racepick/internal/domain/model"
	"github.com/okian/racepick/internal/domain/simulation"
)

// neutralWinPct is simulated when no games exist around the differential.
const neutralWinPct = 50.0

// DisciplineResult is the prediction for one discipline of a pairing.
type DisciplineResult struct {
	Discipline   model.Discipline        `json:"discipline" yaml:"discipline"`
	Race         model.Race              `json:"race" yaml:"race"`
	Sample       history.Sample          `json:"sample" yaml:"sample"`
	WinPct       float64                 `json:"win_pct" yaml:"win_pct"`
	Distribution simulation.Distribution `json:"distribution" yaml:"distribution"`
	Expected     float64                 `json:"expected" yaml:"expected"`
	// OpponentGames is how many games the opponent has logged in this discipline.
	OpponentGames int `json:"opponent_games" yaml:"opponent_games"`
	// NoSamples marks a neutral 50% simulation because no games were found.
	// Such a discipline never counts as our pick.
	NoSamples bool `json:"no_samples,omitempty" yaml:"no_samples,omitempty"`
	// LowConfidence marks samples below the aggregator's threshold.
	LowConfidence bool `json:"low_confidence,omitempty" yaml:"low_confidence,omitempty"`
}

// Pairing is the full prediction for one of our players against one of theirs.
type Pairing struct {
	Ours        string                                   `json:"ours" yaml:"ours"`
	Theirs      string                                   `json:"theirs" yaml:"theirs"`
	Disciplines [model.DisciplineCount]DisciplineResult `json:"disciplines" yaml:"disciplines"`
	Signals     `json:",inline" yaml:",inline"`
}

// Simulator is the subset of simulation.Simulator the evaluator needs.
type Simulator interface {
	Simulate(winPct float64, race model.Race) (simulation.Distribution, error)
}

// Evaluator predicts pairings. It is as safe for concurrent use as its
// Simulator, which in practice means one Evaluator per goroutine.
type Evaluator struct {
	agg *history.Aggregator
	sim Simulator
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(agg *history.Aggregator, sim Simulator) *Evaluator {
	if agg == nil {
		agg = history.New()
	}
	return &Evaluator{agg: agg, sim: sim}
}

// Evaluate predicts ours against theirs in every discipline and combines the
// results. A pairing whose opponent has no games anywhere, or with no games
// around the differential in any discipline, yields a
// *history.MissingHistoryError together with the per-discipline results.
func (e *Evaluator) Evaluate(ours, theirs model.Player) (Pairing, error) {
	p := Pairing{Ours: ours.Name, Theirs: theirs.Name}

	var (
		expected [model.DisciplineCount]float64
		games    [model.DisciplineCount]int
		sampled  [model.DisciplineCount]bool
	)
	for _, d := range model.Disciplines {
		res, err := e.discipline(ours, theirs, d)
		if err != nil {
			return p, fmt.Errorf("%s vs %s in %s: %w", ours.Name, theirs.Name, d, err)
		}
		p.Disciplines[d] = res
		expected[d] = res.Expected
		games[d] = res.OpponentGames
		sampled[d] = !res.NoSamples
	}

	signals, err := Combine(expected, games, sampled)
	if errors.Is(err, history.ErrMissingHistory) {
		return p, &history.MissingHistoryError{Player: ours.Name, Opponent: theirs.Name}
	}
	if err != nil {
		return p, err
	}
	p.Signals = signals
	return p, nil
}

func (e *Evaluator) discipline(ours, theirs model.Player, d model.Discipline) (DisciplineResult, error) {
	race, err := handicap.ResolveDiscipline(ours, theirs, d)
	if err != nil {
		return DisciplineResult{}, err
	}
	sample := e.agg.Aggregate(ours.HistoryFor(d), theirs.HistoryFor(d), race.Differential())

	res := DisciplineResult{
		Discipline:    d,
		Race:          race,
		Sample:        sample,
		OpponentGames: theirs.GamesPlayed(d),
		LowConfidence: sample.Games() < e.agg.MinSamples(),
	}
	res.WinPct, err = sample.WinPercentage()
	if errors.Is(err, history.ErrMissingHistory) {
		res.WinPct = neutralWinPct
		res.NoSamples = true
	}

	res.Distribution, err = e.sim.Simulate(res.WinPct, race)
	if err != nil {
		return DisciplineResult{}, err
	}
	res.Expected = res.Distribution.Expected()
	return res, nil
}
