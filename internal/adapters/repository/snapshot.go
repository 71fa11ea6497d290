package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/okian/racepick/internal/domain/model"
)

// The snapshot is keyed team -> player -> record. Team and player order in
// the file is kept because it decides the order of every report.
type snapshotDoc struct {
	Teams yaml.Node `yaml:"teams"`
}

type playerDoc struct {
	ID      string                          `yaml:"id"`
	Skills  map[string]int                  `yaml:"skills"`
	History map[string]map[string]bucketDoc `yaml:"history,omitempty"`
}

type bucketDoc struct {
	Won  int `yaml:"won"`
	Lost int `yaml:"lost"`
}

// LoadSnapshot reads a roster snapshot from a YAML or JSON file.
func LoadSnapshot(ctx context.Context, path string) (model.Roster, error) {
	if err := ctx.Err(); err != nil {
		return model.Roster{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return model.Roster{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	roster, err := DecodeSnapshot(f)
	if err != nil {
		return model.Roster{}, fmt.Errorf("%s: %w", path, err)
	}
	return roster, nil
}

// DecodeSnapshot parses a roster snapshot. JSON input is accepted as YAML.
func DecodeSnapshot(r io.Reader) (model.Roster, error) {
	var doc snapshotDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return model.Roster{}, fmt.Errorf("%w: empty document", ErrInvalidSnapshot)
		}
		return model.Roster{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if doc.Teams.Kind != yaml.MappingNode {
		return model.Roster{}, fmt.Errorf("%w: teams must be a mapping", ErrInvalidSnapshot)
	}

	var roster model.Roster
	teams := make(map[string]struct{}, len(doc.Teams.Content)/2)
	for i := 0; i+1 < len(doc.Teams.Content); i += 2 {
		team := model.Team{Name: doc.Teams.Content[i].Value}
		if _, dup := teams[team.Name]; dup {
			return model.Roster{}, fmt.Errorf("%w: duplicate team %q", ErrInvalidSnapshot, team.Name)
		}
		teams[team.Name] = struct{}{}
		players := doc.Teams.Content[i+1]
		if players.Kind != yaml.MappingNode {
			return model.Roster{}, fmt.Errorf("%w: team %q must be a mapping", ErrInvalidSnapshot, team.Name)
		}
		seen := make(map[string]struct{}, len(players.Content)/2)
		for j := 0; j+1 < len(players.Content); j += 2 {
			name := players.Content[j].Value
			if _, dup := seen[name]; dup {
				return model.Roster{}, fmt.Errorf("%w: duplicate player %q in %s", ErrInvalidSnapshot, name, team.Name)
			}
			seen[name] = struct{}{}
			var pd playerDoc
			if err := players.Content[j+1].Decode(&pd); err != nil {
				return model.Roster{}, fmt.Errorf("%w: %s/%s: %w", ErrInvalidSnapshot, team.Name, name, err)
			}
			p, err := pd.player(name)
			if err != nil {
				return model.Roster{}, fmt.Errorf("%w: %s/%s: %w", ErrInvalidSnapshot, team.Name, name, err)
			}
			team.Players = append(team.Players, p)
		}
		roster.Teams = append(roster.Teams, team)
	}
	return roster, nil
}

func (pd playerDoc) player(name string) (model.Player, error) {
	p := model.Player{Name: name, ID: pd.ID}
	for key, rating := range pd.Skills {
		d, err := model.ParseDiscipline(key)
		if err != nil {
			return p, err
		}
		if rating < 0 {
			return p, fmt.Errorf("negative %s rating %d", d, rating)
		}
		p.Skills[d] = rating
	}
	for key, buckets := range pd.History {
		d, err := model.ParseDiscipline(key)
		if err != nil {
			return p, err
		}
		h := make(model.History, len(buckets))
		for diff, b := range buckets {
			n, err := strconv.Atoi(diff)
			if err != nil {
				return p, fmt.Errorf("%s differential %q: %w", d, diff, err)
			}
			if b.Won < 0 || b.Lost < 0 {
				return p, fmt.Errorf("%s differential %d: negative game count", d, n)
			}
			h.Add(n, b.Won, b.Lost)
		}
		p.History[d] = h
	}
	return p, nil
}

// EncodeSnapshot writes a roster in the snapshot format, keeping team and
// player order.
func EncodeSnapshot(w io.Writer, roster model.Roster) error {
	teams := &yaml.Node{Kind: yaml.MappingNode}
	for _, t := range roster.Teams {
		players := &yaml.Node{Kind: yaml.MappingNode}
		for _, p := range t.Players {
			var value yaml.Node
			if err := value.Encode(newPlayerDoc(p)); err != nil {
				return fmt.Errorf("encode %s/%s: %w", t.Name, p.Name, err)
			}
			players.Content = append(players.Content, scalar(p.Name), &value)
		}
		teams.Content = append(teams.Content, scalar(t.Name), players)
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{scalar("teams"), teams}}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return enc.Close()
}

func newPlayerDoc(p model.Player) playerDoc {
	pd := playerDoc{ID: p.ID, Skills: make(map[string]int, model.DisciplineCount)}
	for _, d := range model.Disciplines {
		pd.Skills[d.String()] = p.Skill(d)
		h := p.HistoryFor(d)
		if len(h) == 0 {
			continue
		}
		if pd.History == nil {
			pd.History = make(map[string]map[string]bucketDoc)
		}
		buckets := make(map[string]bucketDoc, len(h))
		for diff, b := range h {
			buckets[strconv.Itoa(diff)] = bucketDoc{Won: b.Won, Lost: b.Lost}
		}
		pd.History[d.String()] = buckets
	}
	return pd
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
