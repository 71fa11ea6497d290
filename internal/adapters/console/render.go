package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/okian/racepick/internal/domain/lineup"
	"github.com/okian/racepick/internal/domain/model"
	"github.com/okian/racepick/internal/domain/prediction"
	"github.com/okian/racepick/internal/domain/simulation"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiDim   = "\x1b[2m"

	// barWidth is the bar length of a 100% bucket.
	barWidth = 50
)

// Renderer formats predictions and rankings for a terminal.
type Renderer struct {
	// Color enables ANSI colors.
	Color bool
}

func (r Renderer) paint(color, s string) string {
	if !r.Color || s == "" {
		return s
	}
	return color + s + ansiReset
}

// Distribution writes one bar per outcome bucket.
func (r Renderer) Distribution(w io.Writer, d simulation.Distribution) {
	for _, o := range simulation.Outcomes {
		pct := d[o]
		bar := strings.Repeat("#", pct*barWidth/100)
		color := ansiRed
		if o.Won() {
			color = ansiGreen
		}
		fmt.Fprintf(w, "    %-12s %3d%% %s\n", o, pct, r.paint(color, bar))
	}
}

// Outcome writes a pairing summary with a bar chart per discipline.
func (r Renderer) Outcome(w io.Writer, o prediction.Outcome) {
	fmt.Fprintf(w, "%s vs %s: ", o.Ours, o.Theirs)
	switch o.Status {
	case prediction.StatusError:
		fmt.Fprintf(w, "%s\n", r.paint(ansiRed, "error: "+o.Error))
		return
	case prediction.StatusNoData:
		fmt.Fprintf(w, "%s\n", r.paint(ansiDim, "no history for opponent"))
	default:
		fmt.Fprintf(w, "combined %.2f (our pick %.2f, their typical %.2f)\n",
			o.Pairing.Combined, o.Pairing.OurPick, o.Pairing.TheirTypical)
	}
	if o.Pairing == nil {
		return
	}
	for _, d := range o.Pairing.Disciplines {
		note := ""
		switch {
		case d.NoSamples:
			note = r.paint(ansiDim, " (no results, assumed even)")
		case d.LowConfidence:
			note = r.paint(ansiDim, " (not enough results)")
		}
		fmt.Fprintf(w, "  %s race %s, %d-%d within %d, win %.1f%%, expected %.2f, opponent games %d%s\n",
			d.Discipline, d.Race, d.Sample.Wins, d.Sample.Losses, d.Sample.Radius,
			d.WinPct, d.Expected, d.OpponentGames, note)
		r.Distribution(w, d.Distribution)
	}
}

// Report writes every outcome of a report.
func (r Renderer) Report(w io.Writer, rep *prediction.Report) {
	fmt.Fprintf(w, "%s vs %s, %d trials per discipline\n", rep.OurTeam, rep.TheirTeam, rep.Trials)
	for _, o := range rep.Outcomes {
		r.Outcome(w, o)
	}
	fmt.Fprintf(w, "%d scored, %d without history, %d failed\n",
		rep.Count(prediction.StatusOK), rep.Count(prediction.StatusNoData), rep.Count(prediction.StatusError))
}

// Ranking writes optimizer groups, best first.
func (r Renderer) Ranking(w io.Writer, rk lineup.Ranking) {
	against := "any player"
	if rk.Query.Constrained() {
		against = rk.Query.TheirPick
	}
	fmt.Fprintf(w, "===== player against %s, expected score for next %d games =====\n",
		against, rk.Query.GamesRemaining)
	for i, g := range rk.Groups {
		line := fmt.Sprintf("%7.2f  %s", g.Predicted, strings.Join(g.Players, ", "))
		if i == 0 {
			line = r.paint(ansiGreen, line)
		}
		fmt.Fprintln(w, line)
	}
	for _, c := range rk.Candidates {
		if len(c.Best) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s best slate %.2f: %s\n", c.Player, c.BestTotal, slate(c.Best))
	}
}

// Race writes a resolved race.
func (r Renderer) Race(w io.Writer, race model.Race) {
	fmt.Fprintf(w, "race %s (differential %+d)\n", race, race.Differential())
}

func slate(a lineup.Assignment) string {
	parts := make([]string, len(a))
	for i, p := range a {
		parts[i] = p.Ours + "-" + p.Theirs
	}
	return strings.Join(parts, ", ")
}
