package service

import (
	"errors"

	"github.com/okian/racepick/internal/adapters/repository"
)

// Sentinel errors returned by the service.
var (
	ErrUnknownTeam = errors.New("unknown team")
	ErrEmptyTeam   = errors.New("team has no players")
)

func errorsIsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
