package services

import (
	"context"
	"time"

	"github.com/clubportal/weekvote/internal/models"
)

// SessionServicer defines the interface for vote-session operations
type SessionServicer interface {
	CreateSession(ctx context.Context, params CreateSessionParams) (*models.VoteSession, error)
	GetSession(ctx context.Context, id int64) (*models.VoteSession, error)
	GetActiveSession(ctx context.Context) (*models.VoteSession, error)
	GetActiveSummary(ctx context.Context) (*SessionSummary, error)
	ListSessions(ctx context.Context) ([]SessionSummary, error)
	CloseSession(ctx context.Context, id int64) (*models.VoteSession, error)
	CloseIfExpired(ctx context.Context) (bool, error)
	ReopenSession(ctx context.Context, id int64) (*models.VoteSession, error)
	SetDisabledDays(ctx context.Context, sessionID int64, days []models.DisabledDay) (*models.VoteSession, error)
	DeleteSession(ctx context.Context, id int64) error
	BulkDelete(ctx context.Context, keepIDs []int64) (int64, error)
	SetPublisher(p Publisher)
}

// VoteServicer defines the interface for vote-submission operations
type VoteServicer interface {
	SubmitVote(ctx context.Context, params SubmitVoteParams) (*models.Vote, error)
	GetVote(ctx context.Context, sessionID int64, userID string) (*models.Vote, error)
	GetActiveVote(ctx context.Context, userID string) (*models.Vote, error)
	SetPublisher(p Publisher)
	SetInvalidator(inv Invalidator)
}

// ResultsServicer defines the interface for aggregation operations
type ResultsServicer interface {
	ComputeLive(ctx context.Context, sessionID int64) (*models.AggregatedResult, error)
	SaveSnapshot(ctx context.Context, sessionID int64) (*models.AggregatedResult, error)
	GetSnapshot(ctx context.Context, sessionID int64) (*models.AggregatedResult, error)
	InvalidateCache(sessionID int64)
}

// ScheduleServicer defines the interface for schedule-derivation operations
type ScheduleServicer interface {
	Derive(ctx context.Context, sessionID int64, force bool) ([]models.ScheduleEntry, error)
	GetEntry(ctx context.Context, id int64) (*models.ScheduleEntry, error)
	ListRange(ctx context.Context, from, to time.Time) ([]models.ScheduleEntry, error)
	SessionSchedule(ctx context.Context, sessionID int64) ([]models.ScheduleEntry, error)
	UpdateEntry(ctx context.Context, id int64, params UpdateEntryParams) (*models.ScheduleEntry, error)
	SetConfirmed(ctx context.Context, id int64, confirmed bool) (*models.ScheduleEntry, error)
	MemberStats(ctx context.Context, userID string) (*models.MemberStats, error)
	SetPublisher(p Publisher)
}

// Ensure concrete types implement interfaces
var (
	_ SessionServicer  = (*SessionService)(nil)
	_ VoteServicer     = (*VoteService)(nil)
	_ ResultsServicer  = (*ResultsService)(nil)
	_ ScheduleServicer = (*ScheduleService)(nil)
)
