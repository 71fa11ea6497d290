package model

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnknownDiscipline = errors.New("unknown discipline")
)
