package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/racepick/internal/domain/lineup"
)

// maxLineupBody bounds POST /lineup request bodies.
const maxLineupBody = 64 << 10

// LineupHandler answers optimizer queries.
type LineupHandler struct {
	deps LineupDependencies
}

// NewLineupHandler creates a new lineup handler.
func NewLineupHandler(deps LineupDependencies) *LineupHandler {
	return &LineupHandler{deps: deps}
}

// HandlePostLineup handles POST /lineup.
func (h *LineupHandler) HandlePostLineup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var q lineup.Query
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLineupBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&q); err != nil {
		writeDomainError(w, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	ranking, err := h.deps.Optimize(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}
