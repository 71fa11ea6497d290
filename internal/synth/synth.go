// Package synth generates synthetic roster snapshots. Ratings are drawn per
// player and history is filled by playing handicapped races against random
// opponents, so differentials and results stay consistent with the race
// table.
package synth

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/racepick/internal/domain/handicap"
	"github.com/okian/racepick/internal/domain/model"
	"github.com/okian/racepick/pkg/logger"
)

const (
	defaultTeams    = 2
	defaultPlayers  = 5
	defaultMatches  = 12
	ratingSpread    = 12
	maxRating       = 99
	gameEdgeDivisor = 250.0
	minGameWinPct   = 0.1
	maxGameWinPct   = 0.9
)

var firstNames = []string{
	"Dan", "Amy", "Ray", "Jo", "Sam", "Lee", "Max", "Kim", "Ada", "Ike",
	"Tia", "Ned", "Uma", "Gus", "Viv", "Hal", "Bea", "Cy", "Dot", "Eli",
}

// Config controls the generated roster.
type Config struct {
	Teams          int
	PlayersPerTeam int
	// Matches is the number of races each player logs per discipline.
	Matches int
	Seed    int64
	Workers int
	// TeamNames overrides the generated team names in order.
	TeamNames []string
}

func (c Config) withDefaults() Config {
	if c.Teams < 1 {
		c.Teams = defaultTeams
	}
	if c.PlayersPerTeam < 1 {
		c.PlayersPerTeam = defaultPlayers
	}
	if c.Matches < 1 {
		c.Matches = defaultMatches
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return c
}

// Generate builds a roster. The same Config always yields the same roster,
// whatever the worker count.
func Generate(ctx context.Context, cfg Config) (model.Roster, error) {
	cfg = cfg.withDefaults()
	if cfg.PlayersPerTeam*cfg.Teams > len(firstNames)*len(firstNames) {
		return model.Roster{}, fmt.Errorf("%w: %d players", ErrTooManyPlayers, cfg.PlayersPerTeam*cfg.Teams)
	}
	log := logger.Get().Named("synth")

	roster := model.Roster{Teams: make([]model.Team, cfg.Teams)}
	for t := range roster.Teams {
		roster.Teams[t] = model.Team{
			Name:    teamName(cfg, t),
			Players: make([]model.Player, cfg.PlayersPerTeam),
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for t := 0; t < cfg.Teams; t++ {
		for i := 0; i < cfg.PlayersPerTeam; i++ {
			t, i := t, i
			index := t*cfg.PlayersPerTeam + i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				p, err := player(cfg, index)
				if err != nil {
					return err
				}
				mu.Lock()
				roster.Teams[t].Players[i] = p
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return model.Roster{}, fmt.Errorf("generate roster: %w", err)
	}

	log.Info(ctx, "generated roster",
		logger.Int("teams", cfg.Teams),
		logger.Int("players_per_team", cfg.PlayersPerTeam),
		logger.Int("matches", cfg.Matches),
	)
	return roster, nil
}

func teamName(cfg Config, t int) string {
	if t < len(cfg.TeamNames) && cfg.TeamNames[t] != "" {
		return cfg.TeamNames[t]
	}
	return fmt.Sprintf("Team %d", t+1)
}

// player derives everything about one player from its own RNG.
func player(cfg Config, index int) (model.Player, error) {
	rng := rand.New(rand.NewSource(cfg.Seed + int64(index)))

	p := model.Player{
		Name: playerName(index),
		ID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%d/%d", cfg.Seed, index))).String(),
	}
	base := 20 + rng.Intn(70)
	for _, d := range model.Disciplines {
		p.Skills[d] = clamp(base+rng.Intn(2*ratingSpread+1)-ratingSpread, 0, maxRating)
	}
	for _, d := range model.Disciplines {
		h := make(model.History)
		for m := 0; m < cfg.Matches; m++ {
			opponent := rng.Intn(maxRating + 1)
			race, err := handicap.Resolve(p.Skills[d], opponent)
			if err != nil {
				return p, fmt.Errorf("%s %s: %w", p.Name, d, err)
			}
			won, lost := playRace(rng, gameWinPct(p.Skills[d], opponent), race)
			h.Add(race.Differential(), won, lost)
		}
		p.History[d] = h
	}
	return p, nil
}

// gameWinPct is the single game win chance given both ratings.
func gameWinPct(mine, theirs int) float64 {
	p := 0.5 + float64(mine-theirs)/gameEdgeDivisor
	switch {
	case p < minGameWinPct:
		return minGameWinPct
	case p > maxGameWinPct:
		return maxGameWinPct
	}
	return p
}

// playRace plays games until one side reaches its target.
func playRace(rng *rand.Rand, p float64, race model.Race) (won, lost int) {
	for won < race.Ours && lost < race.Theirs {
		if rng.Float64() < p {
			won++
		} else {
			lost++
		}
	}
	return won, lost
}

func playerName(index int) string {
	first := firstNames[index%len(firstNames)]
	second := firstNames[(index/len(firstNames))%len(firstNames)]
	return first + " " + second
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
