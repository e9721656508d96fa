package services

import (
	"context"
	"strings"
	"time"

	"github.com/clubportal/weekvote/internal/errors"
	"github.com/clubportal/weekvote/internal/logger"
	"github.com/clubportal/weekvote/internal/models"
	"github.com/clubportal/weekvote/internal/repository"
	"github.com/clubportal/weekvote/internal/timewindow"
)

// ThresholdPolicy decides which weekdays from an aggregation become
// games. It returns the qualifying days in calendar order.
type ThresholdPolicy func(result *models.AggregatedResult) []models.Weekday

// MinCount selects every day with at least n participants
func MinCount(n int) ThresholdPolicy {
	return func(result *models.AggregatedResult) []models.Weekday {
		var days []models.Weekday
		for _, day := range models.Weekdays {
			if result.Days[day].Count >= n {
				days = append(days, day)
			}
		}
		return days
	}
}

// TopCount selects the days tied for the highest participant count.
// A zero-vote week yields no days.
func TopCount() ThresholdPolicy {
	return func(result *models.AggregatedResult) []models.Weekday {
		max := 0
		for _, day := range models.Weekdays {
			if c := result.Days[day].Count; c > max {
				max = c
			}
		}
		if max == 0 {
			return nil
		}
		var days []models.Weekday
		for _, day := range models.Weekdays {
			if result.Days[day].Count == max {
				days = append(days, day)
			}
		}
		return days
	}
}

// Aggregator supplies the finalized vote aggregation a derivation runs on
type Aggregator interface {
	GetSnapshot(ctx context.Context, sessionID int64) (*models.AggregatedResult, error)
}

// ScheduleServiceRepository defines the repository methods needed by ScheduleService
type ScheduleServiceRepository interface {
	repository.ScheduleRepository
	GetSession(ctx context.Context, id int64) (*models.VoteSession, error)
	CountClosedSessions(ctx context.Context) (int, error)
	CountVotedSessions(ctx context.Context, userID string) (int, error)
}

// EntryDefaults are applied to every derived schedule entry. Admins can
// edit individual entries afterwards.
type EntryDefaults struct {
	GameTime  string
	Location  string
	EventType string
}

// ScheduleService turns finalized vote results into the next week's
// game schedule and tracks member participation.
type ScheduleService struct {
	log       logger.Logger
	repo      ScheduleServiceRepository
	results   Aggregator
	windows   *timewindow.Resolver
	policy    ThresholdPolicy
	defaults  EntryDefaults
	publisher Publisher
}

// NewScheduleService creates a ScheduleService with the given threshold
// policy. A nil policy defaults to MinCount(2).
func NewScheduleService(log logger.Logger, repo ScheduleServiceRepository, results Aggregator, windows *timewindow.Resolver, policy ThresholdPolicy, defaults EntryDefaults) *ScheduleService {
	if policy == nil {
		policy = MinCount(2)
	}
	if defaults.GameTime == "" {
		defaults.GameTime = "20:00"
	}
	if defaults.EventType == "" {
		defaults.EventType = "game"
	}
	return &ScheduleService{
		log:       log,
		repo:      repo,
		results:   results,
		windows:   windows,
		policy:    policy,
		defaults:  defaults,
		publisher: NopPublisher{},
	}
}

// SetPublisher attaches the push channel for schedule events
func (s *ScheduleService) SetPublisher(p Publisher) {
	s.publisher = p
}

// Derive builds the schedule for the week after the session's voted
// week from its finalized aggregation, replacing any earlier derivation.
// Refuses when confirmed entries already exist unless force is set.
func (s *ScheduleService) Derive(ctx context.Context, sessionID int64, force bool) ([]models.ScheduleEntry, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("session %d not found", sessionID)
	}
	if err != nil {
		return nil, err
	}
	if !session.IsCompleted {
		return nil, errors.SessionNotCompleted("session must be closed before a schedule is derived")
	}

	if !force {
		confirmed, err := s.repo.HasConfirmedEntries(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if confirmed {
			return nil, errors.Conflict("schedule has confirmed entries; re-derive with force to overwrite")
		}
	}

	result, err := s.results.GetSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	gameWeek := s.windows.NextWeekStart(session.WeekStartDate)
	entries := make([]models.ScheduleEntry, 0, len(models.Weekdays))
	for _, day := range s.policy(result) {
		entries = append(entries, models.ScheduleEntry{
			SessionID:    sessionID,
			Day:          day,
			GameDate:     s.windows.DateFor(gameWeek, day),
			GameTime:     s.defaults.GameTime,
			Location:     s.defaults.Location,
			EventType:    s.defaults.EventType,
			Participants: result.Days[day].Participants,
		})
	}

	saved, err := s.repo.ReplaceScheduleEntries(ctx, sessionID, entries)
	if err != nil {
		return nil, err
	}

	s.log.Info("Schedule derived", "session_id", sessionID, "games", len(saved), "week", gameWeek.Format("2006-01-02"))
	s.publisher.PublishScheduleUpdated(sessionID)
	return saved, nil
}

// GetEntry returns one schedule entry by ID
func (s *ScheduleService) GetEntry(ctx context.Context, id int64) (*models.ScheduleEntry, error) {
	entry, err := s.repo.GetScheduleEntry(ctx, id)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("schedule entry %d not found", id)
	}
	return entry, err
}

// ListRange returns schedule entries with game dates in [from, to)
func (s *ScheduleService) ListRange(ctx context.Context, from, to time.Time) ([]models.ScheduleEntry, error) {
	if !to.After(from) {
		return nil, errors.Validation("range end must be after range start")
	}
	return s.repo.ListScheduleEntries(ctx, from, to)
}

// SessionSchedule returns the schedule derived from a session
func (s *ScheduleService) SessionSchedule(ctx context.Context, sessionID int64) ([]models.ScheduleEntry, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err == repository.ErrNotFound {
		return nil, errors.NotFoundf("session %d not found", sessionID)
	} else if err != nil {
		return nil, err
	}
	return s.repo.ListSessionSchedule(ctx, sessionID)
}

// UpdateEntryParams carries an admin's edits to one schedule entry
type UpdateEntryParams struct {
	GameTime       string
	Location       string
	EventType      string
	MercenaryCount int
}

// UpdateEntry edits a derived entry's time, location, type and
// mercenary count. The day and date are fixed by derivation.
func (s *ScheduleService) UpdateEntry(ctx context.Context, id int64, params UpdateEntryParams) (*models.ScheduleEntry, error) {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.MercenaryCount < 0 {
		return nil, errors.Validation("mercenary count cannot be negative")
	}
	gameTime := strings.TrimSpace(params.GameTime)
	if gameTime == "" {
		gameTime = entry.GameTime
	}

	if err := s.repo.UpdateScheduleEntry(ctx, id, gameTime, params.Location, params.EventType, params.MercenaryCount); err != nil {
		return nil, err
	}
	entry.GameTime = gameTime
	entry.Location = params.Location
	entry.EventType = params.EventType
	entry.MercenaryCount = params.MercenaryCount

	s.log.Info("Schedule entry updated", "entry_id", id)
	s.publisher.PublishScheduleUpdated(entry.SessionID)
	return entry, nil
}

// SetConfirmed marks an entry as confirmed or tentative. Confirmed
// entries protect the schedule from accidental re-derivation.
func (s *ScheduleService) SetConfirmed(ctx context.Context, id int64, confirmed bool) (*models.ScheduleEntry, error) {
	entry, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetEntryConfirmed(ctx, id, confirmed); err != nil {
		return nil, err
	}
	entry.Confirmed = confirmed

	s.log.Info("Schedule entry confirmation changed", "entry_id", id, "confirmed", confirmed)
	s.publisher.PublishScheduleUpdated(entry.SessionID)
	return entry, nil
}

// MemberStats computes a member's vote and game participation rates
// over all closed sessions and confirmed games
func (s *ScheduleService) MemberStats(ctx context.Context, userID string) (*models.MemberStats, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.InvalidInput("user ID is required")
	}

	totalSessions, err := s.repo.CountClosedSessions(ctx)
	if err != nil {
		return nil, err
	}
	votedSessions, err := s.repo.CountVotedSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	totalGames, err := s.repo.CountConfirmedGames(ctx)
	if err != nil {
		return nil, err
	}
	attendedGames, err := s.repo.CountGamesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.MemberStats{
		UserID:                userID,
		VoteParticipationRate: percent(votedSessions, totalSessions),
		GameParticipationRate: percent(attendedGames, totalGames),
		VotedSessions:         votedSessions,
		TotalSessions:         totalSessions,
		AttendedGames:         attendedGames,
		TotalGames:            totalGames,
	}, nil
}

// percent computes part/total as an integer percentage, rounding half
// up, with 0 for an empty total
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return (part*200 + total) / (total * 2)
}
