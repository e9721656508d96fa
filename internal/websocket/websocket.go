package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clubportal/weekvote/internal/logger"
	"github.com/clubportal/weekvote/internal/models"
	"github.com/clubportal/weekvote/internal/services"
	"github.com/clubportal/weekvote/internal/timewindow"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the portal terminates auth upstream
	},
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	log        logger.Logger
	clients    map[*Client]bool
	broadcast  chan models.WSMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	sessions   services.SessionServicer
	windows    *timewindow.Resolver
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan models.WSMessage
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, sessions services.SessionServicer, windows *timewindow.Resolver) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.WSMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sessions:   sessions,
		windows:    windows,
	}
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.Debug("Client connected", "total_clients", len(h.clients))

			// Send current session status to new client
			go func() {
				client.send <- h.sessionStatusMessage(context.Background())
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "total_clients", len(h.clients))

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send channel is full, unregister
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// sessionStatusMessage builds the session_status payload from the
// current active session, if any
func (h *Hub) sessionStatusMessage(ctx context.Context) models.WSMessage {
	summary, err := h.sessions.GetActiveSummary(ctx)
	if err != nil {
		return models.WSMessage{
			Type:    "session_status",
			Payload: map[string]interface{}{"active": false},
		}
	}
	return models.WSMessage{
		Type: "session_status",
		Payload: map[string]interface{}{
			"active":            true,
			"session_id":        summary.ID,
			"end_time":          summary.EndTime.Format(time.RFC3339),
			"participant_count": summary.ParticipantCount,
		},
	}
}

// BroadcastMessage sends a message to all connected clients
func (h *Hub) BroadcastMessage(msgType string, payload interface{}) {
	h.broadcast <- models.WSMessage{
		Type:    msgType,
		Payload: payload,
	}
}

// PublishSessionStatus implements services.Publisher
func (h *Hub) PublishSessionStatus(session *models.VoteSession) {
	h.BroadcastMessage("session_status", map[string]interface{}{
		"active":     session.IsActive,
		"session_id": session.ID,
		"end_time":   session.EndTime.Format(time.RFC3339),
	})
}

// PublishVoteSubmitted implements services.Publisher
func (h *Hub) PublishVoteSubmitted(sessionID int64, userID string) {
	h.BroadcastMessage("vote_submitted", map[string]interface{}{
		"session_id": sessionID,
		"user_id":    userID,
	})
}

// PublishScheduleUpdated implements services.Publisher
func (h *Hub) PublishScheduleUpdated(sessionID int64) {
	h.BroadcastMessage("schedule_updated", map[string]interface{}{
		"session_id": sessionID,
	})
}

var _ services.Publisher = (*Hub)(nil)

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		// Clients only listen; log anything they send anyway
		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.hub.log.Debug("Received message", "type", msg.Type)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			msgBytes, _ := json.Marshal(message)
			w.Write(msgBytes)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles websocket requests from clients
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan models.WSMessage, 256),
	}
	h.register <- client

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}

// StartSessionCountdown starts the countdown timer goroutine with context-based cancellation
func (h *Hub) StartSessionCountdown(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("Session countdown stopped")
			return
		case <-ticker.C:
			h.checkAndUpdateCountdown(ctx)
		}
	}
}

// checkAndUpdateCountdown closes the active session once its window
// expires, otherwise broadcasts the remaining seconds
func (h *Hub) checkAndUpdateCountdown(ctx context.Context) {
	summary, err := h.sessions.GetActiveSummary(ctx)
	if err != nil {
		return
	}

	now := h.windows.Now()
	if !now.Before(summary.EndTime) {
		closed, err := h.sessions.CloseIfExpired(ctx)
		if err != nil {
			h.log.Error("Automatic session close failed", "session_id", summary.ID, "error", err)
			return
		}
		if closed {
			h.log.Info("Vote session closed by countdown", "session_id", summary.ID)
		}
		return
	}

	h.BroadcastMessage("countdown", map[string]interface{}{
		"session_id":        summary.ID,
		"seconds_remaining": int(summary.EndTime.Sub(now).Seconds()),
	})
}
