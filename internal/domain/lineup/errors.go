package lineup

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidSlate    = errors.New("invalid slate")
	ErrSlateTooLarge   = errors.New("slate too large")
	ErrDuplicatePlayer = errors.New("duplicate player")
	ErrUnknownPlayer   = errors.New("unknown player")
)
