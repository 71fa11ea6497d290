// Package handicap turns a pair of skill ratings into a handicap race.
package handicap

import (
	"fmt"

	"github.com/okian/racepick/internal/domain/model"
)

// gapTier maps a skill gap lower bound to (stronger, weaker) race targets.
type gapTier struct {
	bound    int
	stronger int
	weaker   int
}

// skillTier groups gap tiers under a lower bound on the stronger rating.
type skillTier struct {
	bound int
	gaps  []gapTier
}

// raceTable is ordered by descending bounds at both levels. Lookup takes the
// first tier whose bound is strictly below the value being matched; every
// tier ends with a -1 bound so any non-negative input matches something.
var raceTable = []skillTier{
	{bound: 89, gaps: []gapTier{
		{74, 10, 2}, {68, 9, 2}, {58, 8, 2}, {48, 9, 3}, {42, 8, 3}, {35, 7, 3},
		{28, 8, 4}, {22, 7, 4}, {17, 6, 4}, {11, 7, 5}, {4, 6, 5}, {-1, 6, 6},
	}},
	{bound: 69, gaps: []gapTier{
		{62, 8, 2}, {56, 7, 2}, {46, 6, 2}, {36, 7, 3}, {28, 6, 3}, {21, 5, 3},
		{14, 6, 4}, {5, 5, 4}, {-1, 5, 5},
	}},
	{bound: 49, gaps: []gapTier{
		{48, 6, 2}, {39, 5, 2}, {29, 4, 2}, {18, 5, 3}, {6, 4, 3}, {-1, 4, 4},
	}},
	{bound: 39, gaps: []gapTier{
		{26, 4, 2}, {10, 3, 2}, {-1, 3, 3},
	}},
	{bound: -1, gaps: []gapTier{
		{19, 3, 2}, {-1, 2, 2},
	}},
}

// Resolve returns the race for a player rated mine against one rated theirs.
// The first element of the result always belongs to mine.
func Resolve(mine, theirs int) (model.Race, error) {
	if mine < 0 || theirs < 0 {
		return model.Race{}, fmt.Errorf("%w: %d vs %d", ErrInvalidRating, mine, theirs)
	}
	stronger, weaker := mine, theirs
	if theirs > mine {
		stronger, weaker = theirs, mine
	}
	gap := stronger - weaker

	tier, ok := lookup(raceTable, stronger, gap)
	if !ok {
		return model.Race{}, &AmbiguousHandicapError{Mine: mine, Theirs: theirs}
	}
	race := model.Race{Ours: tier.stronger, Theirs: tier.weaker}
	if stronger != mine {
		race = race.Swap()
	}
	return race, nil
}

func lookup(table []skillTier, stronger, gap int) (gapTier, bool) {
	for _, st := range table {
		if stronger <= st.bound {
			continue
		}
		for _, gt := range st.gaps {
			if gap > gt.bound {
				return gt, true
			}
		}
		// The matching skill tier had no gap bucket; do not fall through to a
		// weaker tier.
		return gapTier{}, false
	}
	return gapTier{}, false
}

// ResolveDiscipline resolves the race between two players in discipline d.
func ResolveDiscipline(ours, theirs model.Player, d model.Discipline) (model.Race, error) {
	return Resolve(ours.Skill(d), theirs.Skill(d))
}
