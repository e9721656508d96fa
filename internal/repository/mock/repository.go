package mock

import (
	"context"
	"time"

	"github.com/clubportal/weekvote/internal/models"
	"github.com/clubportal/weekvote/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database
// manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.SaveAggregatedResultError = errors.New("database error")
//	svc := services.NewResultsService(log, mockRepo, "en")
//	err := svc.SaveSnapshot(ctx, sessionID)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Session Errors =====
	CreateSessionError        error
	GetSessionError           error
	GetActiveSessionError     error
	ListSessionsError         error
	SetSessionStateError      error
	ReplaceDisabledDaysError  error
	DeleteSessionError        error
	DeleteSessionsExceptError error
	CountClosedSessionsError  error

	// ===== Vote Errors =====
	UpsertVoteError         error
	GetVoteError            error
	ListVotesError          error
	CountVotesError         error
	CountVotedSessionsError error

	// ===== Result Errors =====
	SaveAggregatedResultError error
	GetAggregatedResultError  error

	// ===== Schedule Errors =====
	ReplaceScheduleEntriesError error
	GetScheduleEntryError       error
	ListScheduleEntriesError    error
	ListSessionScheduleError    error
	UpdateScheduleEntryError    error
	SetEntryConfirmedError      error
	HasConfirmedEntriesError    error
	CountConfirmedGamesError    error
	CountGamesForUserError      error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Session Methods =====

func (m *Repository) CreateSession(ctx context.Context, weekStart, startTime, endTime time.Time, disabled []models.DisabledDay) (*models.VoteSession, error) {
	if m.CreateSessionError != nil {
		return nil, m.CreateSessionError
	}
	return m.FullRepository.CreateSession(ctx, weekStart, startTime, endTime, disabled)
}

func (m *Repository) GetSession(ctx context.Context, id int64) (*models.VoteSession, error) {
	if m.GetSessionError != nil {
		return nil, m.GetSessionError
	}
	return m.FullRepository.GetSession(ctx, id)
}

func (m *Repository) GetActiveSession(ctx context.Context) (*models.VoteSession, error) {
	if m.GetActiveSessionError != nil {
		return nil, m.GetActiveSessionError
	}
	return m.FullRepository.GetActiveSession(ctx)
}

func (m *Repository) ListSessions(ctx context.Context) ([]models.VoteSession, error) {
	if m.ListSessionsError != nil {
		return nil, m.ListSessionsError
	}
	return m.FullRepository.ListSessions(ctx)
}

func (m *Repository) SetSessionState(ctx context.Context, id int64, active, completed bool) error {
	if m.SetSessionStateError != nil {
		return m.SetSessionStateError
	}
	return m.FullRepository.SetSessionState(ctx, id, active, completed)
}

func (m *Repository) ReplaceDisabledDays(ctx context.Context, sessionID int64, days []models.DisabledDay) error {
	if m.ReplaceDisabledDaysError != nil {
		return m.ReplaceDisabledDaysError
	}
	return m.FullRepository.ReplaceDisabledDays(ctx, sessionID, days)
}

func (m *Repository) DeleteSession(ctx context.Context, id int64) error {
	if m.DeleteSessionError != nil {
		return m.DeleteSessionError
	}
	return m.FullRepository.DeleteSession(ctx, id)
}

func (m *Repository) DeleteSessionsExcept(ctx context.Context, keepIDs []int64) (int64, error) {
	if m.DeleteSessionsExceptError != nil {
		return 0, m.DeleteSessionsExceptError
	}
	return m.FullRepository.DeleteSessionsExcept(ctx, keepIDs)
}

func (m *Repository) CountClosedSessions(ctx context.Context) (int, error) {
	if m.CountClosedSessionsError != nil {
		return 0, m.CountClosedSessionsError
	}
	return m.FullRepository.CountClosedSessions(ctx)
}

// ===== Vote Methods =====

func (m *Repository) UpsertVote(ctx context.Context, sessionID int64, userID, userName string, days []models.Weekday, votedAt time.Time) error {
	if m.UpsertVoteError != nil {
		return m.UpsertVoteError
	}
	return m.FullRepository.UpsertVote(ctx, sessionID, userID, userName, days, votedAt)
}

func (m *Repository) GetVote(ctx context.Context, sessionID int64, userID string) (*models.Vote, error) {
	if m.GetVoteError != nil {
		return nil, m.GetVoteError
	}
	return m.FullRepository.GetVote(ctx, sessionID, userID)
}

func (m *Repository) ListVotes(ctx context.Context, sessionID int64) ([]models.Vote, error) {
	if m.ListVotesError != nil {
		return nil, m.ListVotesError
	}
	return m.FullRepository.ListVotes(ctx, sessionID)
}

func (m *Repository) CountVotes(ctx context.Context, sessionID int64) (int, error) {
	if m.CountVotesError != nil {
		return 0, m.CountVotesError
	}
	return m.FullRepository.CountVotes(ctx, sessionID)
}

func (m *Repository) CountVotedSessions(ctx context.Context, userID string) (int, error) {
	if m.CountVotedSessionsError != nil {
		return 0, m.CountVotedSessionsError
	}
	return m.FullRepository.CountVotedSessions(ctx, userID)
}

// ===== Result Methods =====

func (m *Repository) SaveAggregatedResult(ctx context.Context, result *models.AggregatedResult) error {
	if m.SaveAggregatedResultError != nil {
		return m.SaveAggregatedResultError
	}
	return m.FullRepository.SaveAggregatedResult(ctx, result)
}

func (m *Repository) GetAggregatedResult(ctx context.Context, sessionID int64) (*models.AggregatedResult, error) {
	if m.GetAggregatedResultError != nil {
		return nil, m.GetAggregatedResultError
	}
	return m.FullRepository.GetAggregatedResult(ctx, sessionID)
}

// ===== Schedule Methods =====

func (m *Repository) ReplaceScheduleEntries(ctx context.Context, sessionID int64, entries []models.ScheduleEntry) ([]models.ScheduleEntry, error) {
	if m.ReplaceScheduleEntriesError != nil {
		return nil, m.ReplaceScheduleEntriesError
	}
	return m.FullRepository.ReplaceScheduleEntries(ctx, sessionID, entries)
}

func (m *Repository) GetScheduleEntry(ctx context.Context, id int64) (*models.ScheduleEntry, error) {
	if m.GetScheduleEntryError != nil {
		return nil, m.GetScheduleEntryError
	}
	return m.FullRepository.GetScheduleEntry(ctx, id)
}

func (m *Repository) ListScheduleEntries(ctx context.Context, from, to time.Time) ([]models.ScheduleEntry, error) {
	if m.ListScheduleEntriesError != nil {
		return nil, m.ListScheduleEntriesError
	}
	return m.FullRepository.ListScheduleEntries(ctx, from, to)
}

func (m *Repository) ListSessionSchedule(ctx context.Context, sessionID int64) ([]models.ScheduleEntry, error) {
	if m.ListSessionScheduleError != nil {
		return nil, m.ListSessionScheduleError
	}
	return m.FullRepository.ListSessionSchedule(ctx, sessionID)
}

func (m *Repository) UpdateScheduleEntry(ctx context.Context, id int64, gameTime, location, eventType string, mercenaryCount int) error {
	if m.UpdateScheduleEntryError != nil {
		return m.UpdateScheduleEntryError
	}
	return m.FullRepository.UpdateScheduleEntry(ctx, id, gameTime, location, eventType, mercenaryCount)
}

func (m *Repository) SetEntryConfirmed(ctx context.Context, id int64, confirmed bool) error {
	if m.SetEntryConfirmedError != nil {
		return m.SetEntryConfirmedError
	}
	return m.FullRepository.SetEntryConfirmed(ctx, id, confirmed)
}

func (m *Repository) HasConfirmedEntries(ctx context.Context, sessionID int64) (bool, error) {
	if m.HasConfirmedEntriesError != nil {
		return false, m.HasConfirmedEntriesError
	}
	return m.FullRepository.HasConfirmedEntries(ctx, sessionID)
}

func (m *Repository) CountConfirmedGames(ctx context.Context) (int, error) {
	if m.CountConfirmedGamesError != nil {
		return 0, m.CountConfirmedGamesError
	}
	return m.FullRepository.CountConfirmedGames(ctx)
}

func (m *Repository) CountGamesForUser(ctx context.Context, userID string) (int, error) {
	if m.CountGamesForUserError != nil {
		return 0, m.CountGamesForUserError
	}
	return m.FullRepository.CountGamesForUser(ctx, userID)
}
