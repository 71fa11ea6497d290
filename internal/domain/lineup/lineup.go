// Package lineup ranks which of our players to put up next by averaging
// predicted scores over every legal ordering of the remaining games.
package lineup

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultMaxGames caps the slate size; enumeration grows factorially.
const DefaultMaxGames = 6

// Scores looks up the combined score of a pairing. ok is false when the
// pairing has no score, which is different from a score of zero.
type Scores interface {
	Score(ours, theirs string) (score float64, ok bool)
}

// Query describes the remaining games and who can still play them.
type Query struct {
	GamesRemaining int      `json:"games_remaining"`
	Ours           []string `json:"ours"`
	Theirs         []string `json:"theirs"`
	// TheirPick is the opponent's announced player for the next game, if any.
	TheirPick string `json:"their_pick,omitempty"`
}

// Constrained reports whether the opponent has already put up a player.
func (q Query) Constrained() bool { return q.TheirPick != "" }

// Pair is one game: our player against theirs.
type Pair struct {
	Ours   string `json:"ours"`
	Theirs string `json:"theirs"`
}

// Assignment is an ordered slate of games.
type Assignment []Pair

// Valid reports whether no player from either side appears twice.
func (a Assignment) Valid() bool {
	ours := make(map[string]struct{}, len(a))
	theirs := make(map[string]struct{}, len(a))
	for _, p := range a {
		if _, dup := ours[p.Ours]; dup {
			return false
		}
		if _, dup := theirs[p.Theirs]; dup {
			return false
		}
		ours[p.Ours] = struct{}{}
		theirs[p.Theirs] = struct{}{}
	}
	return true
}

// Candidate is the expected result of putting up one of our players next.
type Candidate struct {
	Player string `json:"player"`
	// Predicted is First + Rest*(games remaining - 1).
	Predicted float64 `json:"predicted"`
	// First is the mean score of the next game over matching slates.
	First float64 `json:"first"`
	// Rest is the mean score of every later game over matching slates.
	Rest float64 `json:"rest"`
	// Slates is how many legal slates started with this player.
	Slates int `json:"slates"`
	// Best is the single highest scoring slate starting with this player.
	Best      Assignment `json:"best,omitempty"`
	BestTotal float64    `json:"best_total"`
}

// Group collects candidates with the same predicted total.
type Group struct {
	Predicted float64  `json:"predicted"`
	Players   []string `json:"players"`
}

// Ranking is the optimizer's answer to a Query.
type Ranking struct {
	Query      Query       `json:"query"`
	Slates     int         `json:"slates"`
	Candidates []Candidate `json:"candidates"`
	Groups     []Group     `json:"groups"`
}

// Option applies a configuration option to the Optimizer.
type Option func(*Optimizer)

// WithMaxGames sets the largest slate the optimizer will enumerate.
func WithMaxGames(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.maxGames = n
		}
	}
}

// Optimizer ranks our next pick. It holds no per-query state and is safe for
// concurrent use.
type Optimizer struct {
	maxGames int
}

// New creates an Optimizer with configuration options.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{maxGames: DefaultMaxGames}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// accumulator gathers per-candidate sums while slates are enumerated.
type accumulator struct {
	firstSum, restSum float64
	firstN, restN     int
	slates            int
	best              Assignment
	bestTotal         float64
}

// Optimize enumerates every legal slate and ranks our players by the
// average score of slates they open. Pairings without a score are left out
// of the averages.
func (o *Optimizer) Optimize(q Query, scores Scores) (Ranking, error) {
	if err := o.validate(q); err != nil {
		return Ranking{}, err
	}

	acc := make(map[string]*accumulator, len(q.Ours))
	for _, name := range q.Ours {
		acc[name] = &accumulator{}
	}

	total := Enumerate(q.GamesRemaining, q.Ours, q.Theirs, func(a Assignment) {
		if !a.Valid() {
			return
		}
		if q.Constrained() && a[0].Theirs != q.TheirPick {
			return
		}
		c := acc[a[0].Ours]
		c.slates++
		sum := 0.0
		for i, p := range a {
			s, ok := scores.Score(p.Ours, p.Theirs)
			if !ok {
				continue
			}
			sum += s
			if i == 0 {
				c.firstSum += s
				c.firstN++
			} else {
				c.restSum += s
				c.restN++
			}
		}
		if c.best == nil || sum > c.bestTotal {
			c.best = append(Assignment(nil), a...)
			c.bestTotal = sum
		}
	})

	r := Ranking{Query: q, Slates: total, Candidates: make([]Candidate, 0, len(q.Ours))}
	for _, name := range q.Ours {
		c := acc[name]
		first := mean(c.firstSum, c.firstN)
		rest := mean(c.restSum, c.restN)
		r.Candidates = append(r.Candidates, Candidate{
			Player:    name,
			Predicted: round2(first + rest*float64(q.GamesRemaining-1)),
			First:     round2(first),
			Rest:      round2(rest),
			Slates:    c.slates,
			Best:      c.best,
			BestTotal: round2(c.bestTotal),
		})
	}
	sort.SliceStable(r.Candidates, func(i, j int) bool {
		return r.Candidates[i].Predicted > r.Candidates[j].Predicted
	})
	r.Groups = group(r.Candidates)
	return r, nil
}

func (o *Optimizer) validate(q Query) error {
	if q.GamesRemaining < 1 {
		return fmt.Errorf("%w: %d games remaining", ErrInvalidSlate, q.GamesRemaining)
	}
	if q.GamesRemaining > o.maxGames {
		return fmt.Errorf("%w: %d games exceeds limit of %d", ErrSlateTooLarge, q.GamesRemaining, o.maxGames)
	}
	if q.GamesRemaining > len(q.Ours) || q.GamesRemaining > len(q.Theirs) {
		return fmt.Errorf("%w: %d games with %d and %d players available",
			ErrInvalidSlate, q.GamesRemaining, len(q.Ours), len(q.Theirs))
	}
	if name, dup := duplicate(q.Ours); dup {
		return fmt.Errorf("%w: %q in our roster", ErrDuplicatePlayer, name)
	}
	if name, dup := duplicate(q.Theirs); dup {
		return fmt.Errorf("%w: %q in their roster", ErrDuplicatePlayer, name)
	}
	if q.Constrained() && !contains(q.Theirs, q.TheirPick) {
		return fmt.Errorf("%w: %q is not available", ErrUnknownPlayer, q.TheirPick)
	}
	return nil
}

// Enumerate visits every ordered slate of k games drawn from ours x theirs in
// which no player repeats, and returns how many it visited. Pairs that would
// repeat a player are pruned as the slate grows. The slice passed to visit is
// reused between calls.
func Enumerate(k int, ours, theirs []string, visit func(Assignment)) int {
	if k < 1 {
		return 0
	}
	pairs := make([]Pair, 0, len(ours)*len(theirs))
	for _, a := range ours {
		for _, b := range theirs {
			pairs = append(pairs, Pair{Ours: a, Theirs: b})
		}
	}

	var (
		count     int
		slate     = make(Assignment, 0, k)
		usedOurs  = make(map[string]bool, k)
		usedTheir = make(map[string]bool, k)
		walk      func()
	)
	walk = func() {
		if len(slate) == k {
			count++
			visit(slate)
			return
		}
		for _, p := range pairs {
			if usedOurs[p.Ours] || usedTheir[p.Theirs] {
				continue
			}
			usedOurs[p.Ours], usedTheir[p.Theirs] = true, true
			slate = append(slate, p)
			walk()
			slate = slate[:len(slate)-1]
			usedOurs[p.Ours], usedTheir[p.Theirs] = false, false
		}
	}
	walk()
	return count
}

// group buckets sorted candidates by predicted total.
func group(cands []Candidate) []Group {
	var groups []Group
	for _, c := range cands {
		if n := len(groups); n > 0 && groups[n-1].Predicted == c.Predicted {
			groups[n-1].Players = append(groups[n-1].Players, c.Player)
			continue
		}
		groups = append(groups, Group{Predicted: c.Predicted, Players: []string{c.Player}})
	}
	return groups
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func duplicate(names []string) (string, bool) {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return n, true
		}
		seen[n] = struct{}{}
	}
	return "", false
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
