// Package console runs the game-time lineup flow in a terminal: the captain
// marks who is still available, says who puts up, and gets ranked picks.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/racepick/internal/domain/lineup"
	"github.com/okian/racepick/pkg/logger"
)

// Optimizer ranks our next pick.
type Optimizer interface {
	Optimize(q lineup.Query, scores lineup.Scores) (lineup.Ranking, error)
}

// Side says who announces a player first.
type Side int

// Sides.
const (
	Us Side = iota + 1
	Them
)

func (s Side) other() Side {
	if s == Us {
		return Them
	}
	return Us
}

type member struct {
	name      string
	available bool
}

// Session holds the state of one match night.
type Session struct {
	in       *bufio.Scanner
	out      io.Writer
	ours     []*member
	theirs   []*member
	scores   lineup.Scores
	opt      Optimizer
	renderer Renderer
	logger   logger.Logger
}

// NewSession creates a Session reading answers from in and writing prompts
// and rankings to out.
func NewSession(in io.Reader, out io.Writer, ours, theirs []string, scores lineup.Scores, opt Optimizer, opts ...Option) *Session {
	s := &Session{
		in:     bufio.NewScanner(in),
		out:    out,
		ours:   members(ours),
		theirs: members(theirs),
		scores: scores,
		opt:    opt,
		logger: logger.Get().Named("console"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func members(names []string) []*member {
	out := make([]*member, len(names))
	for i, n := range names {
		out[i] = &member{name: n, available: true}
	}
	return out
}

// Run drives the whole match: the number of games, who puts up first, then
// one round per game with alternating put-up.
func (s *Session) Run(ctx context.Context) error {
	limit := min(len(s.ours), len(s.theirs))
	if limit == 0 {
		return fmt.Errorf("%w: both teams need players", ErrNoPlayers)
	}

	s.rule()
	games, err := s.askInt(ctx, fmt.Sprintf("Enter number of games (1-%d)", limit), 1, limit)
	if err != nil {
		return err
	}
	s.rule()
	first, err := s.askInt(ctx, "Which team is putting up?  1. Us,   2. Them", 1, 2)
	if err != nil {
		return err
	}

	putUp := Side(first)
	for remaining := games; remaining > 0; remaining-- {
		if err := s.round(ctx, remaining, putUp); err != nil {
			return err
		}
		putUp = putUp.other()
	}
	return nil
}

// round ranks our pick for one game. The round repeats until the captain
// gives an availability that makes a legal slate.
func (s *Session) round(ctx context.Context, remaining int, putUp Side) error {
	for {
		s.rule()
		fmt.Fprintf(s.out, "%d games remaining\n", remaining)
		if err := s.toggle(ctx, "our", s.ours, "Continue to their team"); err != nil {
			return err
		}
		s.rule()
		if err := s.toggle(ctx, "their", s.theirs, "Continue"); err != nil {
			return err
		}

		q := lineup.Query{
			GamesRemaining: remaining,
			Ours:           available(s.ours),
			Theirs:         available(s.theirs),
		}
		if putUp == Them {
			pick, err := s.askPick(ctx)
			if err != nil {
				return err
			}
			q.TheirPick = pick
		}

		ranking, err := s.opt.Optimize(q, s.scores)
		if err != nil {
			s.logger.Debug(ctx, "query rejected", logger.Error(err))
			fmt.Fprintf(s.out, "Cannot rank this round: %v\n", err)
			continue
		}
		s.renderer.Ranking(s.out, ranking)
		return nil
	}
}

// toggle flips availability until the captain enters 0.
func (s *Session) toggle(ctx context.Context, side string, team []*member, done string) error {
	for {
		fmt.Fprintf(s.out, "Toggle %s team member availability\n", side)
		fmt.Fprintf(s.out, "0: %s\n", done)
		for i, m := range team {
			fmt.Fprintf(s.out, "%d: %s (%s)\n", i+1, m.name, status(m.available))
		}
		n, err := s.askInt(ctx, "", 0, len(team))
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		team[n-1].available = !team[n-1].available
	}
}

// askPick asks which available opponent was put up.
func (s *Session) askPick(ctx context.Context) (string, error) {
	for {
		fmt.Fprintln(s.out, "Their selection")
		for i, m := range s.theirs {
			fmt.Fprintf(s.out, "%d: %s (%s)\n", i+1, m.name, status(m.available))
		}
		n, err := s.askInt(ctx, "", 1, len(s.theirs))
		if err != nil {
			return "", err
		}
		if m := s.theirs[n-1]; m.available {
			return m.name, nil
		}
		fmt.Fprintf(s.out, "%s is unavailable\n", s.theirs[n-1].name)
	}
}

// askInt prompts until it reads an integer in [lo, hi].
func (s *Session) askInt(ctx context.Context, prompt string, lo, hi int) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if prompt != "" {
			fmt.Fprintln(s.out, prompt)
		}
		fmt.Fprint(s.out, ">  ")
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return 0, fmt.Errorf("read answer: %w", err)
			}
			return 0, ErrInputClosed
		}
		n, err := strconv.Atoi(strings.TrimSpace(s.in.Text()))
		if err == nil && n >= lo && n <= hi {
			return n, nil
		}
		fmt.Fprintf(s.out, "Enter a number from %d to %d\n", lo, hi)
	}
}

func (s *Session) rule() {
	fmt.Fprintln(s.out, "==================================")
}

func available(team []*member) []string {
	var names []string
	for _, m := range team {
		if m.available {
			names = append(names, m.name)
		}
	}
	return names
}

func status(available bool) string {
	if available {
		return "available"
	}
	return "unavailable"
}
