package repository

import (
	"context"
	"time"

	"github.com/clubportal/weekvote/internal/models"
)

// SessionRepository defines vote-session data operations
type SessionRepository interface {
	CreateSession(ctx context.Context, weekStart, startTime, endTime time.Time, disabled []models.DisabledDay) (*models.VoteSession, error)
	GetSession(ctx context.Context, id int64) (*models.VoteSession, error)
	GetActiveSession(ctx context.Context) (*models.VoteSession, error)
	ListSessions(ctx context.Context) ([]models.VoteSession, error)
	SetSessionState(ctx context.Context, id int64, active, completed bool) error
	ReplaceDisabledDays(ctx context.Context, sessionID int64, days []models.DisabledDay) error
	DeleteSession(ctx context.Context, id int64) error
	DeleteSessionsExcept(ctx context.Context, keepIDs []int64) (int64, error)
	CountClosedSessions(ctx context.Context) (int, error)
}

// VoteRepository defines vote-ledger data operations
type VoteRepository interface {
	UpsertVote(ctx context.Context, sessionID int64, userID, userName string, days []models.Weekday, votedAt time.Time) error
	GetVote(ctx context.Context, sessionID int64, userID string) (*models.Vote, error)
	ListVotes(ctx context.Context, sessionID int64) ([]models.Vote, error)
	CountVotes(ctx context.Context, sessionID int64) (int, error)
	CountVotedSessions(ctx context.Context, userID string) (int, error)
}

// ResultRepository defines aggregation-snapshot data operations
type ResultRepository interface {
	SaveAggregatedResult(ctx context.Context, result *models.AggregatedResult) error
	GetAggregatedResult(ctx context.Context, sessionID int64) (*models.AggregatedResult, error)
}

// ScheduleRepository defines derived-schedule data operations
type ScheduleRepository interface {
	ReplaceScheduleEntries(ctx context.Context, sessionID int64, entries []models.ScheduleEntry) ([]models.ScheduleEntry, error)
	GetScheduleEntry(ctx context.Context, id int64) (*models.ScheduleEntry, error)
	ListScheduleEntries(ctx context.Context, from, to time.Time) ([]models.ScheduleEntry, error)
	ListSessionSchedule(ctx context.Context, sessionID int64) ([]models.ScheduleEntry, error)
	UpdateScheduleEntry(ctx context.Context, id int64, gameTime, location, eventType string, mercenaryCount int) error
	SetEntryConfirmed(ctx context.Context, id int64, confirmed bool) error
	HasConfirmedEntries(ctx context.Context, sessionID int64) (bool, error)
	CountConfirmedGames(ctx context.Context) (int, error)
	CountGamesForUser(ctx context.Context, userID string) (int, error)
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	SessionRepository
	VoteRepository
	ResultRepository
	ScheduleRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
