package services

import (
	"context"
	"time"

	"github.com/clubportal/weekvote/internal/errors"
	"github.com/clubportal/weekvote/internal/logger"
	"github.com/clubportal/weekvote/internal/models"
	"github.com/clubportal/weekvote/internal/repository"
	"github.com/clubportal/weekvote/internal/timewindow"
)

// SessionServiceRepository defines the repository methods needed by SessionService
type SessionServiceRepository interface {
	repository.SessionRepository
	CountVotes(ctx context.Context, sessionID int64) (int, error)
}

// SessionService manages the vote-session lifecycle and the
// one-active-session invariant.
type SessionService struct {
	log       logger.Logger
	repo      SessionServiceRepository
	windows   *timewindow.Resolver
	publisher Publisher
}

// NewSessionService creates a new SessionService
func NewSessionService(log logger.Logger, repo SessionServiceRepository, windows *timewindow.Resolver) *SessionService {
	return &SessionService{
		log:       log,
		repo:      repo,
		windows:   windows,
		publisher: NopPublisher{},
	}
}

// SetPublisher attaches the push channel for lifecycle events
func (s *SessionService) SetPublisher(p Publisher) {
	s.publisher = p
}

// CreateSessionParams carries the admin's session settings. Zero-value
// times fall back to resolver defaults.
type CreateSessionParams struct {
	WeekStartDate time.Time
	StartTime     time.Time
	EndTime       time.Time
	DisabledDays  []models.DisabledDay
}

// CreateSession opens a new vote session for the upcoming week. Fails
// with a conflict when another session is active; the repository's
// uniqueness constraint backs the check against concurrent creators.
func (s *SessionService) CreateSession(ctx context.Context, params CreateSessionParams) (*models.VoteSession, error) {
	if err := validateDisabledDays(params.DisabledDays); err != nil {
		return nil, err
	}

	now := s.windows.Now()
	weekStart := params.WeekStartDate
	if weekStart.IsZero() {
		// Votes concern the upcoming week
		weekStart = s.windows.NextWeekStart(now)
	} else {
		weekStart = s.windows.WeekStart(weekStart)
	}

	startTime, endTime := params.StartTime, params.EndTime
	if startTime.IsZero() || endTime.IsZero() {
		defStart, defEnd := s.windows.DefaultVoteWindow(now)
		if startTime.IsZero() {
			startTime = defStart
		}
		if endTime.IsZero() {
			endTime = defEnd
		}
	}
	if !endTime.After(startTime) {
		return nil, errors.Validation("session end time must be after start time")
	}

	if _, err := s.repo.GetActiveSession(ctx); err == nil {
		return nil, errors.Conflict("an active vote session already exists")
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	session, err := s.repo.CreateSession(ctx, weekStart, startTime, endTime, params.DisabledDays)
	if err == repository.ErrActiveSessionExists {
		return nil, errors.Conflict("an active vote session already exists")
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("Vote session created", "session_id", session.ID, "week_start", weekStart.Format("2006-01-02"))
	s.publisher.PublishSessionStatus(session)
	return session, nil
}

// GetSession returns a session by ID
func (s *SessionService) GetSession(ctx context.Context, id int64) (*models.VoteSession, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("session %d not found", id)
	}
	return session, err
}

// GetActiveSession returns the currently active session, or a NotFound
// error when voting is not open
func (s *SessionService) GetActiveSession(ctx context.Context) (*models.VoteSession, error) {
	session, err := s.repo.GetActiveSession(ctx)
	if err == repository.ErrNotFound {
		return nil, errors.NotFound("no active vote session")
	}
	return session, err
}

// SessionSummary is the active-session view consumed by the calendar UI
type SessionSummary struct {
	ID               int64                `json:"id"`
	WeekStartDate    time.Time            `json:"week_start_date"`
	StartTime        time.Time            `json:"start_time"`
	EndTime          time.Time            `json:"end_time"`
	IsActive         bool                 `json:"is_active"`
	IsCompleted      bool                 `json:"is_completed"`
	DisabledDays     []models.DisabledDay `json:"disabled_days,omitempty"`
	ParticipantCount int                  `json:"participant_count"`
}

// GetActiveSummary returns the active session with its participant count
func (s *SessionService) GetActiveSummary(ctx context.Context) (*SessionSummary, error) {
	session, err := s.GetActiveSession(ctx)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountVotes(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	return &SessionSummary{
		ID:               session.ID,
		WeekStartDate:    session.WeekStartDate,
		StartTime:        session.StartTime,
		EndTime:          session.EndTime,
		IsActive:         session.IsActive,
		IsCompleted:      session.IsCompleted,
		DisabledDays:     session.DisabledDays,
		ParticipantCount: count,
	}, nil
}

// ListSessions returns all sessions with their participant counts,
// newest first
func (s *SessionService) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	sessions, err := s.repo.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		count, err := s.repo.CountVotes(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, SessionSummary{
			ID:               session.ID,
			WeekStartDate:    session.WeekStartDate,
			StartTime:        session.StartTime,
			EndTime:          session.EndTime,
			IsActive:         session.IsActive,
			IsCompleted:      session.IsCompleted,
			DisabledDays:     session.DisabledDays,
			ParticipantCount: count,
		})
	}
	return summaries, nil
}

// CloseSession ends the opinion-collection window of a session
func (s *SessionService) CloseSession(ctx context.Context, id int64) (*models.VoteSession, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted || !session.IsActive {
		return nil, errors.InvalidStatef("session %d is already closed", id)
	}

	if err := s.repo.SetSessionState(ctx, id, false, true); err != nil {
		return nil, err
	}
	session.IsActive = false
	session.IsCompleted = true

	s.log.Info("Vote session closed", "session_id", id)
	s.publisher.PublishSessionStatus(session)
	return session, nil
}

// CloseIfExpired closes the active session once its end time has passed.
// Called by the countdown loop; a no-op when nothing is active or the
// window is still open.
func (s *SessionService) CloseIfExpired(ctx context.Context) (bool, error) {
	session, err := s.repo.GetActiveSession(ctx)
	if err == repository.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if s.windows.Now().Before(session.EndTime) {
		return false, nil
	}

	if _, err := s.CloseSession(ctx, session.ID); err != nil {
		return false, err
	}
	s.log.Info("Vote session closed by window expiry", "session_id", session.ID)
	return true, nil
}

// ReopenSession toggles a closed session back to active on the same
// identity. Allowed only while no other session is active.
func (s *SessionService) ReopenSession(ctx context.Context, id int64) (*models.VoteSession, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.IsActive {
		return nil, errors.InvalidStatef("session %d is already active", id)
	}

	if active, err := s.repo.GetActiveSession(ctx); err == nil && active.ID != id {
		return nil, errors.Conflictf("session %d is currently active", active.ID)
	} else if err != nil && err != repository.ErrNotFound {
		return nil, err
	}

	err = s.repo.SetSessionState(ctx, id, true, false)
	if err == repository.ErrActiveSessionExists {
		return nil, errors.Conflict("another session became active")
	}
	if err != nil {
		return nil, err
	}
	session.IsActive = true
	session.IsCompleted = false

	s.log.Info("Vote session reopened", "session_id", id)
	s.publisher.PublishSessionStatus(session)
	return session, nil
}

// SetDisabledDays replaces the disabled-weekday set of the active
// session. Existing votes keep days disabled afterwards (no retroactive
// invalidation); the new set applies to submissions from here on.
func (s *SessionService) SetDisabledDays(ctx context.Context, sessionID int64, days []models.DisabledDay) (*models.VoteSession, error) {
	if err := validateDisabledDays(days); err != nil {
		return nil, err
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, errors.InvalidStatef("session %d is not active", sessionID)
	}

	if err := s.repo.ReplaceDisabledDays(ctx, sessionID, days); err != nil {
		return nil, err
	}
	session.DisabledDays = days

	s.log.Info("Disabled days updated", "session_id", sessionID, "count", len(days))
	s.publisher.PublishSessionStatus(session)
	return session, nil
}

// DeleteSession removes a session and, by cascade, its votes, snapshot
// and derived schedule. Irreversible.
func (s *SessionService) DeleteSession(ctx context.Context, id int64) error {
	err := s.repo.DeleteSession(ctx, id)
	if err == repository.ErrNotFound {
		return errors.NotFoundf("session %d not found", id)
	}
	if err != nil {
		return err
	}
	s.log.Info("Vote session deleted", "session_id", id)
	return nil
}

// BulkDelete removes every session except the given IDs and returns the
// number removed
func (s *SessionService) BulkDelete(ctx context.Context, keepIDs []int64) (int64, error) {
	if len(keepIDs) == 0 {
		return 0, ErrNoSessionsKept
	}
	n, err := s.repo.DeleteSessionsExcept(ctx, keepIDs)
	if err != nil {
		return 0, err
	}
	s.log.Info("Vote sessions bulk-deleted", "removed", n, "kept", len(keepIDs))
	return n, nil
}

// validateDisabledDays rejects unknown weekdays and duplicates
func validateDisabledDays(days []models.DisabledDay) error {
	seen := make(map[models.Weekday]bool, len(days))
	for _, d := range days {
		if !d.Day.Valid() {
			return errors.InvalidDayf("unknown weekday %q", string(d.Day))
		}
		if seen[d.Day] {
			return errors.InvalidDayf("weekday %s listed twice", string(d.Day))
		}
		seen[d.Day] = true
	}
	return nil
}
