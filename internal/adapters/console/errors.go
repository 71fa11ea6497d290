package console

import "errors"

// Sentinel kinds for console errors.
var (
	ErrInputClosed = errors.New("input closed")
	ErrNoPlayers   = errors.New("no players")
)
