package handlers

import (
	"net/http"
)

// handleGetResults returns the finalized aggregation for a closed
// session. Members see the same snapshot the schedule was derived from.
func (h *Handlers) handleGetResults(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	result, err := h.Results.GetSnapshot(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

// handleGetLiveResults recomputes the aggregation straight from the
// ledger, bypassing any snapshot. Admin view while voting is open.
func (h *Handlers) handleGetLiveResults(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	result, err := h.Results.ComputeLive(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}

// handleAggregate finalizes a closed session's results into a snapshot
func (h *Handlers) handleAggregate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	result, err := h.Results.SaveSnapshot(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, result)
}
