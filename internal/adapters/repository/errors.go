package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound        = errors.New("no predictions stored")
	ErrInvalidSnapshot = errors.New("invalid roster snapshot")
	ErrCorruptReport   = errors.New("stored report is corrupt")
)
