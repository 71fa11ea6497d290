package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// RaceHandler resolves handicap races.
type RaceHandler struct {
	deps RaceDependencies
}

// NewRaceHandler creates a new race handler.
func NewRaceHandler(deps RaceDependencies) *RaceHandler {
	return &RaceHandler{deps: deps}
}

// HandleGetRace handles GET /race?ours=N&theirs=M.
func (h *RaceHandler) HandleGetRace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	ours, err := intParam(r, "ours")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	theirs, err := intParam(r, "theirs")
	if err != nil {
		writeDomainError(w, err)
		return
	}
	race, err := h.deps.Race(ours, theirs)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, race)
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %s", ErrBadRequest, name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return v, nil
}
