package history

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrMissingHistory = errors.New("missing history")
)

// MissingHistoryError names the player and discipline that had no games to
// base a prediction on.
type MissingHistoryError struct {
	Player     string
	Opponent   string
	Discipline string
}

func (e *MissingHistoryError) Error() string {
	if e.Discipline == "" {
		return fmt.Sprintf("missing history: %s vs %s has no games in any discipline", e.Player, e.Opponent)
	}
	return fmt.Sprintf("missing history: %s vs %s has no games in %s", e.Player, e.Opponent, e.Discipline)
}

// Is matches ErrMissingHistory.
func (e *MissingHistoryError) Is(target error) bool {
	return target == ErrMissingHistory
}
