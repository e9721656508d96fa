package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// WebSocket
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	// Member API (identity forwarded by the portal)
	r.Get("/api/session/active", h.handleGetActiveSession)
	r.Get("/api/sessions/{id}/results", h.handleGetResults)
	r.Post("/api/vote", h.handleSubmitVote)
	r.Get("/api/vote", h.handleGetMyVote)
	r.Get("/api/schedule", h.handleGetSchedule)
	r.Get("/api/members/{userID}/stats", h.handleMemberStats)

	// Auth routes (public)
	r.Post("/api/admin/login", h.handleLogin)
	r.Post("/api/admin/logout", h.handleLogout)

	// Admin API (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuthAPI)

		// Sessions
		r.Get("/api/admin/sessions", h.handleListSessions)
		r.Post("/api/admin/sessions", h.handleCreateSession)
		r.Get("/api/admin/sessions/{id}", h.handleGetSession)
		r.Delete("/api/admin/sessions/{id}", h.handleDeleteSession)
		r.Post("/api/admin/sessions/{id}/close", h.handleCloseSession)
		r.Post("/api/admin/sessions/{id}/reopen", h.handleReopenSession)
		r.Put("/api/admin/sessions/{id}/disabled-days", h.handleSetDisabledDays)
		r.Post("/api/admin/sessions/bulk-delete", h.handleBulkDeleteSessions)

		// Results
		r.Get("/api/admin/sessions/{id}/results/live", h.handleGetLiveResults)
		r.Post("/api/admin/sessions/{id}/aggregate", h.handleAggregate)

		// Schedule
		r.Post("/api/admin/sessions/{id}/schedule", h.handleDeriveSchedule)
		r.Get("/api/admin/sessions/{id}/schedule", h.handleGetSessionSchedule)
		r.Put("/api/admin/schedule/{id}", h.handleUpdateScheduleEntry)
		r.Post("/api/admin/schedule/{id}/confirm", h.handleConfirmScheduleEntry)

		// QR Codes
		r.Get("/api/admin/vote-qr", h.handleVoteQR)
	})

	return r
}
