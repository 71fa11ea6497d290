// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Discipline is one of the three game types a match can be played in.
type Discipline int

// Supported disciplines, in roster order.
const (
	EightBall Discipline = iota
	NineBall
	TenBall
)

// DisciplineCount is the number of supported disciplines.
const DisciplineCount = 3

// Disciplines lists every discipline in roster order.
var Disciplines = [DisciplineCount]Discipline{EightBall, NineBall, TenBall}

var disciplineNames = [DisciplineCount]string{"8ball", "9ball", "10ball"}

func (d Discipline) String() string {
	if d < 0 || int(d) >= DisciplineCount {
		return fmt.Sprintf("discipline(%d)", int(d))
	}
	return disciplineNames[d]
}

// ParseDiscipline accepts "8ball", "8_ball" or "8" style names.
func ParseDiscipline(s string) (Discipline, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "_", "")
	norm = strings.ReplaceAll(norm, "-", "")
	for i, name := range disciplineNames {
		if norm == name || norm == strings.TrimSuffix(name, "ball") {
			return Discipline(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDiscipline, s)
}

// Bucket holds the games a player won and lost at one differential.
type Bucket struct {
	Won  int
	Lost int
}

// Games returns Won+Lost.
func (b Bucket) Games() int { return b.Won + b.Lost }

// History maps a race differential (our race minus their race) to the games
// played at it. A differential that is absent has zero games.
type History map[int]Bucket

// At returns the bucket for differential d, or an empty bucket.
func (h History) At(d int) Bucket {
	return h[d]
}

// Games returns the total number of games logged across all differentials.
func (h History) Games() int {
	total := 0
	for _, b := range h {
		total += b.Games()
	}
	return total
}

// Add folds a single match result into the bucket at differential d.
func (h History) Add(d, won, lost int) {
	b := h[d]
	b.Won += won
	b.Lost += lost
	h[d] = b
}

// Player is a roster member with per-discipline ratings and history.
type Player struct {
	Name    string
	ID      string
	Skills  [DisciplineCount]int
	History [DisciplineCount]History
}

// Skill returns the rating for discipline d.
func (p Player) Skill(d Discipline) int { return p.Skills[d] }

// HistoryFor returns the history for discipline d. Never nil.
func (p Player) HistoryFor(d Discipline) History {
	if h := p.History[d]; h != nil {
		return h
	}
	return History{}
}

// GamesPlayed returns the total games logged in discipline d.
func (p Player) GamesPlayed(d Discipline) int {
	return p.HistoryFor(d).Games()
}

// Team is an ordered list of players.
type Team struct {
	Name    string
	Players []Player
}

// Player looks up a team member by name.
func (t Team) Player(name string) (Player, bool) {
	for _, p := range t.Players {
		if p.Name == name {
			return p, true
		}
	}
	return Player{}, false
}

// Names returns player names in roster order.
func (t Team) Names() []string {
	names := make([]string, len(t.Players))
	for i, p := range t.Players {
		names[i] = p.Name
	}
	return names
}

// Roster is the read-only snapshot of every known team.
type Roster struct {
	Teams []Team
}

// Team looks up a team by name.
func (r Roster) Team(name string) (Team, bool) {
	for _, t := range r.Teams {
		if t.Name == name {
			return t, true
		}
	}
	return Team{}, false
}

// Race is the number of games each side needs to win first.
type Race struct {
	Ours   int `json:"ours" yaml:"ours"`
	Theirs int `json:"theirs" yaml:"theirs"`
}

// Differential returns Ours - Theirs.
func (r Race) Differential() int { return r.Ours - r.Theirs }

// Swap returns the race seen from the other side.
func (r Race) Swap() Race { return Race{Ours: r.Theirs, Theirs: r.Ours} }

// Valid reports whether both targets are positive.
func (r Race) Valid() bool { return r.Ours > 0 && r.Theirs > 0 }

func (r Race) String() string { return fmt.Sprintf("%d-%d", r.Ours, r.Theirs) }

// MarshalText encodes the discipline by name.
func (d Discipline) MarshalText() ([]byte, error) {
	if d < 0 || int(d) >= DisciplineCount {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDiscipline, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a discipline name.
func (d *Discipline) UnmarshalText(text []byte) error {
	parsed, err := ParseDiscipline(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
