package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	apperrors "github.com/clubportal/weekvote/internal/errors"
	"github.com/clubportal/weekvote/internal/logger"
	"github.com/clubportal/weekvote/internal/models"
	"github.com/clubportal/weekvote/internal/services"
	"github.com/clubportal/weekvote/internal/timewindow"
)

// mockSessionService implements services.SessionServicer for testing
type mockSessionService struct {
	mu        sync.Mutex
	summary   *services.SessionSummary
	closed    bool
	closeCall int
}

func newMockSessionService() *mockSessionService {
	return &mockSessionService{}
}

func (m *mockSessionService) GetActiveSummary(ctx context.Context) (*services.SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.summary == nil {
		return nil, apperrors.NotFound("no active vote session")
	}
	return m.summary, nil
}

func (m *mockSessionService) CloseIfExpired(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCall++
	if m.summary == nil || m.closed {
		return false, nil
	}
	m.closed = true
	m.summary = nil
	return true, nil
}

// Unused interface methods
func (m *mockSessionService) CreateSession(ctx context.Context, params services.CreateSessionParams) (*models.VoteSession, error) {
	return nil, nil
}
func (m *mockSessionService) GetSession(ctx context.Context, id int64) (*models.VoteSession, error) {
	return nil, nil
}
func (m *mockSessionService) GetActiveSession(ctx context.Context) (*models.VoteSession, error) {
	return nil, nil
}
func (m *mockSessionService) ListSessions(ctx context.Context) ([]services.SessionSummary, error) {
	return nil, nil
}
func (m *mockSessionService) CloseSession(ctx context.Context, id int64) (*models.VoteSession, error) {
	return nil, nil
}
func (m *mockSessionService) ReopenSession(ctx context.Context, id int64) (*models.VoteSession, error) {
	return nil, nil
}
func (m *mockSessionService) SetDisabledDays(ctx context.Context, sessionID int64, days []models.DisabledDay) (*models.VoteSession, error) {
	return nil, nil
}
func (m *mockSessionService) DeleteSession(ctx context.Context, id int64) error { return nil }
func (m *mockSessionService) BulkDelete(ctx context.Context, keepIDs []int64) (int64, error) {
	return 0, nil
}
func (m *mockSessionService) SetPublisher(p services.Publisher) {}

func testWindows(at time.Time) *timewindow.Resolver {
	return timewindow.New(timewindow.FixedClock{T: at}, time.UTC)
}

func TestNew_CreatesHubWithDependencies(t *testing.T) {
	log := logger.New()
	sessions := newMockSessionService()

	hub := New(log, sessions, testWindows(time.Now()))

	if hub == nil {
		t.Fatal("expected hub to be created")
	}
	if hub.log == nil {
		t.Error("expected logger to be set")
	}
	if hub.sessions == nil {
		t.Error("expected session service to be set")
	}
	if hub.clients == nil {
		t.Error("expected clients map to be initialized")
	}
	if hub.broadcast == nil {
		t.Error("expected broadcast channel to be initialized")
	}
	if hub.register == nil {
		t.Error("expected register channel to be initialized")
	}
	if hub.unregister == nil {
		t.Error("expected unregister channel to be initialized")
	}
}

func TestHub_BroadcastMessage(t *testing.T) {
	hub := New(logger.New(), newMockSessionService(), testWindows(time.Now()))
	hub.Start()

	time.Sleep(10 * time.Millisecond)

	// BroadcastMessage should not block even with no clients
	done := make(chan bool)
	go func() {
		hub.BroadcastMessage("test", map[string]string{"key": "value"})
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("BroadcastMessage blocked with no clients")
	}
}

func TestHub_ClientRegistration(t *testing.T) {
	hub := New(logger.New(), newMockSessionService(), testWindows(time.Now()))
	hub.Start()

	time.Sleep(10 * time.Millisecond)

	client := &Client{
		hub:  hub,
		send: make(chan models.WSMessage, 256),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.mutex.RLock()
	_, exists := hub.clients[client]
	hub.mutex.RUnlock()

	if !exists {
		t.Error("expected client to be registered")
	}
}

func TestHub_NewClientReceivesSessionStatus(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	sessions := newMockSessionService()
	sessions.summary = &services.SessionSummary{
		ID:               7,
		EndTime:          now.Add(time.Hour),
		IsActive:         true,
		ParticipantCount: 3,
	}
	hub := New(logger.New(), sessions, testWindows(now))
	hub.Start()

	client := &Client{
		hub:  hub,
		send: make(chan models.WSMessage, 256),
	}
	hub.register <- client

	select {
	case msg := <-client.send:
		if msg.Type != "session_status" {
			t.Errorf("message type = %q, want session_status", msg.Type)
		}
		payload, ok := msg.Payload.(map[string]interface{})
		if !ok {
			t.Fatalf("unexpected payload type %T", msg.Payload)
		}
		if payload["active"] != true {
			t.Error("expected active=true in payload")
		}
		if payload["session_id"] != int64(7) {
			t.Errorf("session_id = %v, want 7", payload["session_id"])
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("new client did not receive the session status")
	}
}

func TestHub_ClientUnregistration(t *testing.T) {
	hub := New(logger.New(), newMockSessionService(), testWindows(time.Now()))
	hub.Start()

	time.Sleep(10 * time.Millisecond)

	client := &Client{
		hub:  hub,
		send: make(chan models.WSMessage, 256),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)

	hub.mutex.RLock()
	_, exists := hub.clients[client]
	hub.mutex.RUnlock()

	if exists {
		t.Error("expected client to be unregistered")
	}
}

func TestHub_PublisherFanout(t *testing.T) {
	hub := New(logger.New(), newMockSessionService(), testWindows(time.Now()))
	hub.Start()

	client := &Client{
		hub:  hub,
		send: make(chan models.WSMessage, 256),
	}
	hub.register <- client

	// Drain the initial session status
	select {
	case <-client.send:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("no initial message")
	}

	hub.PublishVoteSubmitted(7, "kim")

	select {
	case msg := <-client.send:
		if msg.Type != "vote_submitted" {
			t.Errorf("message type = %q, want vote_submitted", msg.Type)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("registered client did not receive the broadcast")
	}
}

func TestHub_StartSessionCountdown_ContextCancellation(t *testing.T) {
	hub := New(logger.New(), newMockSessionService(), testWindows(time.Now()))
	hub.Start()

	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan bool)
	stopped := make(chan bool)

	go func() {
		started <- true
		hub.StartSessionCountdown(ctx)
		stopped <- true
	}()

	<-started
	time.Sleep(50 * time.Millisecond)

	cancel()

	select {
	case <-stopped:
	case <-time.After(500 * time.Millisecond):
		t.Error("countdown did not stop when context was cancelled")
	}
}

func TestHub_CountdownClosesExpiredSession(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	sessions := newMockSessionService()
	sessions.summary = &services.SessionSummary{
		ID:      7,
		EndTime: now.Add(-time.Minute),
	}
	hub := New(logger.New(), sessions, testWindows(now))
	hub.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.StartSessionCountdown(ctx)

	time.Sleep(1500 * time.Millisecond)

	sessions.mu.Lock()
	closed := sessions.closed
	sessions.mu.Unlock()

	if !closed {
		t.Error("expected the expired session to be closed by the countdown")
	}
}

func TestServeWs_UpgradeAndStatus(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	sessions := newMockSessionService()
	sessions.summary = &services.SessionSummary{
		ID:       7,
		EndTime:  now.Add(time.Hour),
		IsActive: true,
	}
	hub := New(logger.New(), sessions, testWindows(now))
	hub.Start()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg models.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	if msg.Type != "session_status" {
		t.Errorf("message type = %q, want session_status", msg.Type)
	}
}
