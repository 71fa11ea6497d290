// Package prediction turns per-discipline simulations into one expected
// score per pairing and collects pairings into a report.
package prediction

import (
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/racepick/internal/domain/history"
	"github.com/okian/racepick/internal/domain/model"
)

// Signals are the two estimates a combined score is built from.
type Signals struct {
	// OurPick assumes the side choosing the discipline takes its best one.
	OurPick float64 `json:"our_pick" yaml:"our_pick"`
	// TheirTypical weights each discipline by how often the opponent plays it.
	TheirTypical float64 `json:"their_typical" yaml:"their_typical"`
	// Combined is the mean of both, rounded to two decimals.
	Combined float64 `json:"combined" yaml:"combined"`
}

// Combine builds the signals from per-discipline expected points, the
// opponent's games logged per discipline and whether each discipline had
// games around its differential. Disciplines without opponent games are left
// out of TheirTypical and unsampled ones out of OurPick; if either set is
// empty the result is undefined and ErrMissingHistory is returned.
func Combine(expected [model.DisciplineCount]float64, opponentGames [model.DisciplineCount]int, sampled [model.DisciplineCount]bool) (Signals, error) {
	values := make([]float64, 0, model.DisciplineCount)
	weights := make([]float64, 0, model.DisciplineCount)
	picks := make([]float64, 0, model.DisciplineCount)
	for i, games := range opponentGames {
		if sampled[i] {
			picks = append(picks, expected[i])
		}
		if games <= 0 {
			continue
		}
		values = append(values, expected[i])
		weights = append(weights, float64(games))
	}
	if len(values) == 0 || len(picks) == 0 {
		return Signals{}, history.ErrMissingHistory
	}

	ourPick := floats.Max(picks)
	theirTypical := stat.Mean(values, weights)
	return Signals{
		OurPick:      ourPick,
		TheirTypical: theirTypical,
		Combined:     round2((ourPick + theirTypical) / 2),
	}, nil
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
