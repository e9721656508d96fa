package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clubportal/weekvote/internal/services"
)

// handleGetSchedule returns schedule entries within a date range.
// Defaults to the four weeks around today when no range is given.
func (h *Handlers) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	from := now.AddDate(0, 0, -14)
	to := now.AddDate(0, 0, 14)

	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			respondError(w, BadRequest("Invalid from: expected YYYY-MM-DD"))
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse("2006-01-02", v); err != nil {
			respondError(w, BadRequest("Invalid to: expected YYYY-MM-DD"))
			return
		}
	}

	entries, err := h.Schedule.ListRange(r.Context(), from, to)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, entries)
}

// handleGetSessionSchedule returns the schedule derived from a session
func (h *Handlers) handleGetSessionSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	entries, err := h.Schedule.SessionSchedule(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, ScheduleResponse{SessionID: id, Entries: entries})
}

// handleDeriveSchedule builds next week's games from a closed session's
// finalized results
func (h *Handlers) handleDeriveSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req ScheduleDeriveRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
	}
	entries, err := h.Schedule.Derive(r.Context(), id, req.Force)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, ScheduleResponse{SessionID: id, Entries: entries})
}

// handleUpdateScheduleEntry edits a derived entry's details
func (h *Handlers) handleUpdateScheduleEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req ScheduleEntryUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	entry, err := h.Schedule.UpdateEntry(r.Context(), id, services.UpdateEntryParams{
		GameTime:       req.GameTime,
		Location:       req.Location,
		EventType:      req.EventType,
		MercenaryCount: req.MercenaryCount,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, entry)
}

// handleConfirmScheduleEntry marks an entry confirmed or tentative
func (h *Handlers) handleConfirmScheduleEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req ConfirmEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	entry, err := h.Schedule.SetConfirmed(r.Context(), id, req.Confirmed)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, entry)
}

// handleMemberStats returns a member's participation percentages
func (h *Handlers) handleMemberStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	stats, err := h.Schedule.MemberStats(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, stats)
}
