package simulation

import (
	"errors"
	"fmt"

	"github.com/okian/racepick/internal/domain/model"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidRace        = errors.New("invalid race")
	ErrInvalidProbability = errors.New("invalid win probability")
)

// InvalidRaceError reports a race with a non-positive target.
type InvalidRaceError struct {
	Race model.Race
}

func (e *InvalidRaceError) Error() string {
	return fmt.Sprintf("invalid race %d-%d: targets must be positive", e.Race.Ours, e.Race.Theirs)
}

// Is matches ErrInvalidRace.
func (e *InvalidRaceError) Is(target error) bool { return target == ErrInvalidRace }

// InvalidProbabilityError reports a win percentage outside [0,100].
type InvalidProbabilityError struct {
	Value float64
}

func (e *InvalidProbabilityError) Error() string {
	return fmt.Sprintf("invalid win percentage %v: must be within [0,100]", e.Value)
}

// Is matches ErrInvalidProbability.
func (e *InvalidProbabilityError) Is(target error) bool { return target == ErrInvalidProbability }
