package services

import "github.com/clubportal/weekvote/internal/models"

// Publisher is the subscription point between the engine and its UI
// consumers. The WebSocket hub implements it; services publish instead
// of mutating any shared global state.
type Publisher interface {
	PublishSessionStatus(session *models.VoteSession)
	PublishVoteSubmitted(sessionID int64, userID string)
	PublishScheduleUpdated(sessionID int64)
}

// NopPublisher ignores all events. Used until a hub is attached and in
// tests that do not care about push messages.
type NopPublisher struct{}

func (NopPublisher) PublishSessionStatus(*models.VoteSession) {}
func (NopPublisher) PublishVoteSubmitted(int64, string)       {}
func (NopPublisher) PublishScheduleUpdated(int64)             {}
