package synth

import "errors"

// Sentinel kinds for generator errors.
var (
	ErrTooManyPlayers = errors.New("too many players for the name pool")
)
