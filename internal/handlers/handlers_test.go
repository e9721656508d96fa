package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clubportal/weekvote/internal/auth"
	"github.com/clubportal/weekvote/internal/handlers"
	"github.com/clubportal/weekvote/internal/logger"
	"github.com/clubportal/weekvote/internal/models"
	"github.com/clubportal/weekvote/internal/repository"
	"github.com/clubportal/weekvote/internal/services"
	"github.com/clubportal/weekvote/internal/timewindow"
)

// testNow is a Wednesday morning inside the default vote window
var testNow = time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

// testSetup wires the full API stack over an in-memory repository
type testSetup struct {
	repo       *repository.Repository
	handlers   *handlers.Handlers
	router     chi.Router
	authCookie *http.Cookie
}

// newTestSetup creates a new test setup with an in-memory repository
// and a clock frozen at testNow
func newTestSetup(t *testing.T) *testSetup {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	log := logger.New()
	windows := timewindow.New(timewindow.FixedClock{T: testNow}, time.UTC)

	sessionService := services.NewSessionService(log, repo, windows)
	voteService := services.NewVoteService(log, repo, windows)
	resultsService := services.NewResultsService(log, repo, "en")
	voteService.SetInvalidator(resultsService)
	scheduleService := services.NewScheduleService(log, repo, resultsService, windows, nil, services.EntryDefaults{})

	h := handlers.NewForTesting(sessionService, voteService, resultsService, scheduleService)

	// Login once so authenticated requests can reuse the cookie
	token, _ := h.Auth.Login("test-password")
	authCookie := &http.Cookie{
		Name:  auth.CookieName,
		Value: token,
	}

	return &testSetup{
		repo:       repo,
		handlers:   h,
		router:     h.Router(),
		authCookie: authCookie,
	}
}

// authRequest adds the admin session cookie to a request
func (ts *testSetup) authRequest(req *http.Request) *http.Request {
	req.AddCookie(ts.authCookie)
	return req
}

// memberRequest adds the portal's forwarded identity headers
func memberRequest(req *http.Request, userID, userName string) *http.Request {
	req.Header.Set(auth.HeaderUserID, userID)
	req.Header.Set(auth.HeaderUserName, userName)
	return req
}

// openSession creates an active session whose window contains testNow
func (ts *testSetup) openSession(t *testing.T, disabled []models.DisabledDay) *models.VoteSession {
	t.Helper()
	session, err := ts.repo.CreateSession(context.Background(),
		testNow.AddDate(0, 0, 5),
		testNow.Add(-24*time.Hour),
		testNow.Add(24*time.Hour),
		disabled)
	if err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}
	return session
}

// closeSession flips the session to completed
func (ts *testSetup) closeSession(t *testing.T, id int64) {
	t.Helper()
	if err := ts.repo.SetSessionState(context.Background(), id, false, true); err != nil {
		t.Fatalf("failed to close test session: %v", err)
	}
}

// vote records a member's selection directly in the repository
func (ts *testSetup) vote(t *testing.T, sessionID int64, userID, userName string, days ...models.Weekday) {
	t.Helper()
	if err := ts.repo.UpsertVote(context.Background(), sessionID, userID, userName, days, testNow); err != nil {
		t.Fatalf("failed to record test vote: %v", err)
	}
}
