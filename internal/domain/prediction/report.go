package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/racepick/internal/domain/history"
	"github.com/okian/racepick/internal/domain/model"
)

// Status classifies how a pairing evaluation ended.
type Status string

// Pairing statuses.
const (
	StatusOK     Status = "ok"
	StatusNoData Status = "no_data"
	StatusError  Status = "error"
)

// Outcome is the per-pairing result collected into a Report. A pairing with
// no usable history and one whose computation failed are kept apart so a
// zero score is never confused with a missing one.
type Outcome struct {
	Ours    string   `json:"ours" yaml:"ours"`
	Theirs  string   `json:"theirs" yaml:"theirs"`
	Status  Status   `json:"status" yaml:"status"`
	Pairing *Pairing `json:"pairing,omitempty" yaml:"pairing,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewOutcome classifies an Evaluate result.
func NewOutcome(ours, theirs string, p Pairing, err error) Outcome {
	o := Outcome{Ours: ours, Theirs: theirs, Status: StatusOK}
	switch {
	case err == nil:
		o.Pairing = &p
	case errors.Is(err, history.ErrMissingHistory):
		o.Status = StatusNoData
		o.Pairing = &p
		o.Error = err.Error()
	default:
		o.Status = StatusError
		o.Error = err.Error()
	}
	return o
}

// Score returns the combined score if the pairing has one.
func (o Outcome) Score() (float64, bool) {
	if o.Status != StatusOK || o.Pairing == nil {
		return 0, false
	}
	return o.Pairing.Combined, true
}

// Report is the prediction table for one of our teams against one of theirs.
type Report struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Trials    int       `json:"trials" yaml:"trials"`
	OurTeam   string    `json:"our_team" yaml:"our_team"`
	TheirTeam string    `json:"their_team" yaml:"their_team"`
	// OurPlayers and TheirPlayers keep roster order for display.
	OurPlayers   []string  `json:"our_players" yaml:"our_players"`
	TheirPlayers []string  `json:"their_players" yaml:"their_players"`
	Outcomes     []Outcome `json:"outcomes" yaml:"outcomes"`
}

// NewReport assembles outcomes into a Report ordered by roster position.
func NewReport(ours, theirs model.Team, trials int, outcomes []Outcome) *Report {
	r := &Report{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Trials:       trials,
		OurTeam:      ours.Name,
		TheirTeam:    theirs.Name,
		OurPlayers:   ours.Names(),
		TheirPlayers: theirs.Names(),
	}
	byKey := make(map[Key]Outcome, len(outcomes))
	for _, o := range outcomes {
		byKey[Key{Ours: o.Ours, Theirs: o.Theirs}] = o
	}
	for _, a := range r.OurPlayers {
		for _, b := range r.TheirPlayers {
			if o, ok := byKey[Key{Ours: a, Theirs: b}]; ok {
				r.Outcomes = append(r.Outcomes, o)
			}
		}
	}
	return r
}

// PairingEvaluator predicts one pairing. *Evaluator is the usual one.
type PairingEvaluator interface {
	Evaluate(ours, theirs model.Player) (Pairing, error)
}

// Build evaluates every pairing of ours against theirs sequentially.
func Build(ctx context.Context, ours, theirs model.Team, e PairingEvaluator, trials int) (*Report, error) {
	outcomes := make([]Outcome, 0, len(ours.Players)*len(theirs.Players))
	for _, a := range ours.Players {
		for _, b := range theirs.Players {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("build report: %w", err)
			}
			p, err := e.Evaluate(a, b)
			outcomes = append(outcomes, NewOutcome(a.Name, b.Name, p, err))
		}
	}
	return NewReport(ours, theirs, trials, outcomes), nil
}

// Lookup returns the outcome for a pairing.
func (r *Report) Lookup(ours, theirs string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Ours == ours && o.Theirs == theirs {
			return o, true
		}
	}
	return Outcome{}, false
}

// Table returns the combined scores of every pairing that has one.
func (r *Report) Table() Table {
	t := make(Table, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if score, ok := o.Score(); ok {
			t[Key{Ours: o.Ours, Theirs: o.Theirs}] = score
		}
	}
	return t
}

// Count returns how many outcomes have the given status.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Errors returns the computation errors recorded in the report.
func (r *Report) Errors() []error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Status == StatusError {
			errs = append(errs, fmt.Errorf("%w: %s vs %s: %s", ErrPairing, o.Ours, o.Theirs, o.Error))
		}
	}
	return errs
}

// Key identifies a pairing.
type Key struct {
	Ours   string
	Theirs string
}

// Table maps pairings to combined scores. Absent pairings have no score.
type Table map[Key]float64

// Score returns the combined score for a pairing.
func (t Table) Score(ours, theirs string) (float64, bool) {
	v, ok := t[Key{Ours: ours, Theirs: theirs}]
	return v, ok
}
