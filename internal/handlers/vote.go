package handlers

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/clubportal/weekvote/internal/auth"
	"github.com/clubportal/weekvote/internal/errors"
	"github.com/clubportal/weekvote/internal/models"
	"github.com/clubportal/weekvote/internal/services"
)

// handleSubmitVote records the member's weekday selection for the
// active session. Identity comes from the portal's forwarded headers.
func (h *Handlers) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromRequest(r)
	if ident.UserID == "" {
		respondError(w, Unauthorized("Missing member identity"))
		return
	}

	var req VoteSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	days := make([]models.Weekday, 0, len(req.SelectedDays))
	for _, d := range req.SelectedDays {
		days = append(days, models.Weekday(d))
	}

	vote, err := h.Vote.SubmitVote(r.Context(), services.SubmitVoteParams{
		UserID:       ident.UserID,
		UserName:     ident.UserName,
		SelectedDays: days,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, vote)
}

// handleGetMyVote returns the member's vote in the active session.
// A member who has not voted yet gets voted=false, not an error.
func (h *Handlers) handleGetMyVote(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromRequest(r)
	if ident.UserID == "" {
		respondError(w, Unauthorized("Missing member identity"))
		return
	}

	vote, err := h.Vote.GetActiveVote(r.Context(), ident.UserID)
	if err != nil {
		var appErr *errors.Error
		if stderrors.As(err, &appErr) && appErr.Kind == errors.ErrNotFound {
			session, serr := h.Session.GetActiveSession(r.Context())
			if serr != nil {
				respondError(w, serr)
				return
			}
			respondOK(w, VoteStatusResponse{Voted: false, SessionID: session.ID})
			return
		}
		respondError(w, err)
		return
	}

	respondOK(w, VoteStatusResponse{
		Voted:        true,
		SessionID:    vote.SessionID,
		SelectedDays: vote.SelectedDays,
		VotedAt:      vote.VotedAt.Format(time.RFC3339),
	})
}
