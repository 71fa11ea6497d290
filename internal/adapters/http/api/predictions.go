package api

import (
	"fmt"
	"net/http"
)

// PredictionsHandler serves the current prediction report.
type PredictionsHandler struct {
	deps PredictionsDependencies
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps PredictionsDependencies) *PredictionsHandler {
	return &PredictionsHandler{deps: deps}
}

// HandleGetPredictions handles GET /predictions. With ours and theirs it
// returns just that pairing's outcome.
func (h *PredictionsHandler) HandleGetPredictions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	query := r.URL.Query()
	ours, theirs := query.Get("ours"), query.Get("theirs")
	if (ours == "") != (theirs == "") {
		writeDomainError(w, fmt.Errorf("%w: ours and theirs go together", ErrBadRequest))
		return
	}

	report, err := h.deps.Predictions(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if ours == "" {
		writeJSON(w, http.StatusOK, report)
		return
	}

	outcome, ok := report.Lookup(ours, theirs)
	if !ok {
		writeDomainError(w, fmt.Errorf("%w: %s vs %s", ErrPairingNotFound, ours, theirs))
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
