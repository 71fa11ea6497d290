package handicap

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidRating     = errors.New("invalid skill rating")
	ErrAmbiguousHandicap = errors.New("ambiguous handicap")
)

// AmbiguousHandicapError reports a rating pair the race table does not cover.
// The table's -1 fallbacks make this reachable only through a table defect.
type AmbiguousHandicapError struct {
	Mine   int
	Theirs int
}

func (e *AmbiguousHandicapError) Error() string {
	return fmt.Sprintf("ambiguous handicap: no race for ratings %d vs %d", e.Mine, e.Theirs)
}

// Is matches ErrAmbiguousHandicap.
func (e *AmbiguousHandicapError) Is(target error) bool {
	return target == ErrAmbiguousHandicap
}
