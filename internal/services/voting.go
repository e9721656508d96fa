package services

import (
	"context"
	"strings"

	"github.com/clubportal/weekvote/internal/errors"
	"github.com/clubportal/weekvote/internal/logger"
	"github.com/clubportal/weekvote/internal/models"
	"github.com/clubportal/weekvote/internal/repository"
	"github.com/clubportal/weekvote/internal/timewindow"
)

// VoteServiceRepository defines the repository methods needed by VoteService
type VoteServiceRepository interface {
	repository.VoteRepository
	GetSession(ctx context.Context, id int64) (*models.VoteSession, error)
	GetActiveSession(ctx context.Context) (*models.VoteSession, error)
}

// Invalidator is notified when a session's votes change, so cached
// aggregations can be dropped.
type Invalidator interface {
	InvalidateCache(sessionID int64)
}

// VoteService accepts and reads member availability votes
type VoteService struct {
	log         logger.Logger
	repo        VoteServiceRepository
	windows     *timewindow.Resolver
	publisher   Publisher
	invalidator Invalidator
}

// NewVoteService creates a new VoteService
func NewVoteService(log logger.Logger, repo VoteServiceRepository, windows *timewindow.Resolver) *VoteService {
	return &VoteService{
		log:       log,
		repo:      repo,
		windows:   windows,
		publisher: NopPublisher{},
	}
}

// SetPublisher attaches the push channel for vote events
func (s *VoteService) SetPublisher(p Publisher) {
	s.publisher = p
}

// SetInvalidator attaches the aggregation cache to drop on writes
func (s *VoteService) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

// SubmitVoteParams carries one member's submission. SelectedDays is the
// full replacement set; an empty slice records "cannot attend any day".
type SubmitVoteParams struct {
	UserID       string
	UserName     string
	SelectedDays []models.Weekday
}

// SubmitVote records or overwrites the member's availability for the
// active session. Resubmission replaces the previous day set entirely.
func (s *VoteService) SubmitVote(ctx context.Context, params SubmitVoteParams) (*models.Vote, error) {
	userID := strings.TrimSpace(params.UserID)
	if userID == "" {
		return nil, errors.InvalidInput("user ID is required")
	}
	userName := strings.TrimSpace(params.UserName)
	if userName == "" {
		userName = userID
	}

	session, err := s.repo.GetActiveSession(ctx)
	if err == repository.ErrNotFound {
		return nil, errors.SessionNotActive("no vote session is currently open")
	}
	if err != nil {
		return nil, err
	}

	now := s.windows.Now()
	if now.Before(session.StartTime) || !now.Before(session.EndTime) {
		return nil, errors.SessionNotActive("the vote window is not open")
	}

	days, err := normalizeDays(session, params.SelectedDays)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpsertVote(ctx, session.ID, userID, userName, days, now); err != nil {
		return nil, err
	}
	vote := &models.Vote{
		SessionID:    session.ID,
		UserID:       userID,
		UserName:     userName,
		SelectedDays: days,
		VotedAt:      now,
	}

	s.log.Info("Vote recorded", "session_id", session.ID, "user_id", userID, "days", len(days))
	if s.invalidator != nil {
		s.invalidator.InvalidateCache(session.ID)
	}
	s.publisher.PublishVoteSubmitted(session.ID, userID)
	return vote, nil
}

// GetVote returns the member's current vote in the given session, or a
// NotFound error when they have not voted
func (s *VoteService) GetVote(ctx context.Context, sessionID int64, userID string) (*models.Vote, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.InvalidInput("user ID is required")
	}
	vote, err := s.repo.GetVote(ctx, sessionID, userID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("no vote by %s in session %d", userID, sessionID)
	}
	return vote, err
}

// GetActiveVote returns the member's vote in the active session
func (s *VoteService) GetActiveVote(ctx context.Context, userID string) (*models.Vote, error) {
	session, err := s.repo.GetActiveSession(ctx)
	if err == repository.ErrNotFound {
		return nil, errors.NotFound("no active vote session")
	}
	if err != nil {
		return nil, err
	}
	return s.GetVote(ctx, session.ID, userID)
}

// normalizeDays validates the selection against the session's disabled
// set and returns it in canonical Monday-to-Friday order, deduplicated
func normalizeDays(session *models.VoteSession, selected []models.Weekday) ([]models.Weekday, error) {
	chosen := make(map[models.Weekday]bool, len(selected))
	for _, d := range selected {
		if !d.Valid() {
			return nil, errors.InvalidDayf("unknown weekday %q", string(d))
		}
		if session.DayDisabled(d) {
			return nil, errors.InvalidDayf("%s is disabled for this session", string(d))
		}
		chosen[d] = true
	}
	days := make([]models.Weekday, 0, len(chosen))
	for _, d := range models.Weekdays {
		if chosen[d] {
			days = append(days, d)
		}
	}
	return days, nil
}
