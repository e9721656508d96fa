package handlers

import (
	"net/http"
	"time"

	"github.com/clubportal/weekvote/internal/models"
	"github.com/clubportal/weekvote/internal/services"
)

// handleGetActiveSession returns the active session summary for the
// member calendar
func (h *Handlers) handleGetActiveSession(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Session.GetActiveSummary(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, summary)
}

// handleListSessions returns all sessions, newest first
func (h *Handlers) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Session.ListSessions(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, sessions)
}

// handleGetSession returns one session by ID
func (h *Handlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	session, err := h.Session.GetSession(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, session)
}

// handleCreateSession opens a new vote session
func (h *Handlers) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	params := services.CreateSessionParams{
		DisabledDays: toDisabledDays(req.DisabledDays),
	}
	var err error
	if params.WeekStartDate, err = parseDateField(req.WeekStartDate, "week_start_date"); err != nil {
		respondError(w, err)
		return
	}
	if params.StartTime, err = parseTimeField(req.StartTime, "start_time"); err != nil {
		respondError(w, err)
		return
	}
	if params.EndTime, err = parseTimeField(req.EndTime, "end_time"); err != nil {
		respondError(w, err)
		return
	}

	session, err := h.Session.CreateSession(r.Context(), params)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, session)
}

// handleCloseSession ends a session's vote window
func (h *Handlers) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	session, err := h.Session.CloseSession(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, session)
}

// handleReopenSession reactivates a closed session
func (h *Handlers) handleReopenSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	session, err := h.Session.ReopenSession(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, session)
}

// handleSetDisabledDays replaces a session's excluded weekdays
func (h *Handlers) handleSetDisabledDays(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req DisabledDaysUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	session, err := h.Session.SetDisabledDays(r.Context(), id, toDisabledDays(req.DisabledDays))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, session)
}

// handleDeleteSession removes a session and everything derived from it
func (h *Handlers) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.Session.DeleteSession(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondDeleted(w)
}

// handleBulkDeleteSessions removes every session except the listed IDs
func (h *Handlers) handleBulkDeleteSessions(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	deleted, err := h.Session.BulkDelete(r.Context(), req.KeepIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, BulkDeleteResponse{Deleted: deleted})
}

// toDisabledDays converts request DTOs to model values
func toDisabledDays(in []DisabledDayRequest) []models.DisabledDay {
	days := make([]models.DisabledDay, 0, len(in))
	for _, d := range in {
		days = append(days, models.DisabledDay{Day: models.Weekday(d.Day), Reason: d.Reason})
	}
	return days
}

// parseDateField parses an optional YYYY-MM-DD field
func parseDateField(value, name string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, BadRequest("Invalid " + name + ": expected YYYY-MM-DD")
	}
	return t, nil
}

// parseTimeField parses an optional RFC 3339 timestamp field
func parseTimeField(value, name string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, BadRequest("Invalid " + name + ": expected RFC 3339 timestamp")
	}
	return t, nil
}
