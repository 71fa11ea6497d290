// Package history folds two players' differential-bucketed records into one
// win/loss sample for a given race differential.
package history

import (
	"github.com/okian/racepick/internal/domain/model"
)

// Default aggregation parameters.
const (
	DefaultMinSamples = 10
	DefaultMaxRadius  = 4
)

// Sample is the combined record found around a differential.
type Sample struct {
	Wins   int `json:"wins" yaml:"wins"`
	Losses int `json:"losses" yaml:"losses"`
	// Radius is the widest offset consulted.
	Radius int `json:"radius" yaml:"radius"`
}

// Games returns Wins+Losses.
func (s Sample) Games() int { return s.Wins + s.Losses }

// WinPercentage returns wins as a percentage of games in [0,100].
func (s Sample) WinPercentage() (float64, error) {
	if s.Games() == 0 {
		return 0, ErrMissingHistory
	}
	return float64(s.Wins) / float64(s.Games()) * 100, nil
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithMinSamples sets how many games stop the search early.
func WithMinSamples(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.minSamples = n
		}
	}
}

// WithMaxRadius sets the widest offset searched around the differential.
func WithMaxRadius(r int) Option {
	return func(a *Aggregator) {
		if r >= 0 {
			a.maxRadius = r
		}
	}
}

// Aggregator widens a symmetric window around a differential until enough
// games are found.
type Aggregator struct {
	minSamples int
	maxRadius  int
	offsets    []int
}

// New creates an Aggregator with configuration options.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		minSamples: DefaultMinSamples,
		maxRadius:  DefaultMaxRadius,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.offsets = offsets(a.maxRadius)
	return a
}

// offsets returns 0, -1, +1, -2, +2 ... up to radius.
func offsets(radius int) []int {
	out := make([]int, 0, 2*radius+1)
	out = append(out, 0)
	for r := 1; r <= radius; r++ {
		out = append(out, -r, r)
	}
	return out
}

// Aggregate combines our history with the opponent's history around
// differential. The opponent's buckets are read from their perspective, at
// the negated differential, with wins and losses swapped.
func (a *Aggregator) Aggregate(mine, theirs model.History, differential int) Sample {
	var s Sample
	for _, off := range a.offsets {
		d := differential + off

		ours := mine.At(d)
		s.Wins += ours.Won
		s.Losses += ours.Lost

		opp := theirs.At(-d)
		s.Wins += opp.Lost
		s.Losses += opp.Won

		if s.Games() >= a.minSamples {
			s.Radius = abs(off)
			return s
		}
	}
	s.Radius = a.maxRadius
	return s
}

// MinSamples returns the configured early-stop threshold.
func (a *Aggregator) MinSamples() int { return a.minSamples }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
