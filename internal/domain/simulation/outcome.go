// Package simulation plays out race-to-N contests to estimate how a match
// is likely to score.
package simulation

import "fmt"

// Outcome is one of the five ways a race can end, from our side.
type Outcome int

// Outcomes in ascending point order.
const (
	ShutoutLoss Outcome = iota
	Loss
	HillLoss
	Win
	ShutoutWin
)

// OutcomeCount is the number of outcome categories.
const OutcomeCount = 5

// Outcomes lists every category in ascending point order.
var Outcomes = [OutcomeCount]Outcome{ShutoutLoss, Loss, HillLoss, Win, ShutoutWin}

var (
	outcomePoints = [OutcomeCount]int{1, 3, 6, 14, 20}
	outcomeNames  = [OutcomeCount]string{"shutout_loss", "loss", "hill_loss", "win", "shutout_win"}
)

// Points returns the team points the outcome is worth.
func (o Outcome) Points() int { return outcomePoints[o] }

// Won reports whether the outcome is a race we won.
func (o Outcome) Won() bool { return o == Win || o == ShutoutWin }

func (o Outcome) String() string {
	if o < 0 || int(o) >= OutcomeCount {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// Counts holds raw trial tallies per outcome.
type Counts [OutcomeCount]int

// Total returns the number of trials counted.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Distribution holds integer percentages per outcome summing to 100.
type Distribution [OutcomeCount]int

// Sum returns the total of all buckets.
func (d Distribution) Sum() int {
	total := 0
	for _, p := range d {
		total += p
	}
	return total
}

// Expected returns the expected points, sum(pct*points)/100.
func (d Distribution) Expected() float64 {
	total := 0
	for i, p := range d {
		total += p * outcomePoints[i]
	}
	return float64(total) / 100
}

// WinShare returns the percentage of races won outright or by shutout.
func (d Distribution) WinShare() int {
	return d[Win] + d[ShutoutWin]
}

// Normalize turns raw counts into percentages rounded half up. Rounding
// slack is absorbed by the Win bucket so the result sums to exactly 100;
// only if Win would go negative does the largest bucket give up the rest.
func Normalize(c Counts) Distribution {
	var d Distribution
	total := c.Total()
	if total == 0 {
		return d
	}
	for i, n := range c {
		d[i] = int(float64(n)/float64(total)*100 + 0.5)
	}
	for d.Sum() < 100 {
		d[Win]++
	}
	for d.Sum() > 100 {
		if d[Win] > 0 {
			d[Win]--
			continue
		}
		d[largest(d)]--
	}
	return d
}

func largest(d Distribution) int {
	best := 0
	for i := range d {
		if d[i] > d[best] {
			best = i
		}
	}
	return best
}
