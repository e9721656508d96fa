package handlers

import (
	"github.com/clubportal/weekvote/internal/auth"
	"github.com/clubportal/weekvote/internal/services"
	"github.com/clubportal/weekvote/internal/websocket"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Session  services.SessionServicer
	Vote     services.VoteServicer
	Results  services.ResultsServicer
	Schedule services.ScheduleServicer
	Auth     *auth.Auth
	Hub      *websocket.Hub
	Log      HTTPLogger
	baseURL  string
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	session services.SessionServicer,
	vote services.VoteServicer,
	results services.ResultsServicer,
	schedule services.ScheduleServicer,
	adminAuth *auth.Auth,
	hub *websocket.Hub,
	log HTTPLogger,
	baseURL string,
) *Handlers {
	return &Handlers{
		Session:  session,
		Vote:     vote,
		Results:  results,
		Schedule: schedule,
		Auth:     adminAuth,
		Hub:      hub,
		Log:      log,
		baseURL:  baseURL,
	}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// NewForTesting creates a Handlers instance with a fixed admin password
// and no hub, for exercising API endpoints in tests
func NewForTesting(
	session services.SessionServicer,
	vote services.VoteServicer,
	results services.ResultsServicer,
	schedule services.ScheduleServicer,
) *Handlers {
	return &Handlers{
		Session:  session,
		Vote:     vote,
		Results:  results,
		Schedule: schedule,
		Auth:     auth.New("test-password"),
		Log:      NoopHTTPLogger{},
		baseURL:  "http://localhost:8082",
	}
}
