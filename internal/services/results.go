package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/clubportal/weekvote/internal/errors"
	"github.com/clubportal/weekvote/internal/logger"
	"github.com/clubportal/weekvote/internal/models"
	"github.com/clubportal/weekvote/internal/repository"
)

// ResultsServiceRepository defines the repository methods needed by ResultsService
type ResultsServiceRepository interface {
	repository.ResultRepository
	GetSession(ctx context.Context, id int64) (*models.VoteSession, error)
	ListVotes(ctx context.Context, sessionID int64) ([]models.Vote, error)
}

// ResultsService aggregates the vote ledger into per-day counts and
// participant lists. Live computation is deterministic: the same ledger
// always yields the same result, so a recomputed snapshot matches the
// stored one.
type ResultsService struct {
	log  logger.Logger
	repo ResultsServiceRepository

	colMu    sync.Mutex
	collator *collate.Collator

	cacheMu sync.RWMutex
	cache   map[int64]*models.AggregatedResult
}

// NewResultsService creates a ResultsService sorting participant names
// under the given locale. An unparseable tag falls back to English.
func NewResultsService(log logger.Logger, repo ResultsServiceRepository, locale string) *ResultsService {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &ResultsService{
		log:      log,
		repo:     repo,
		collator: collate.New(tag),
		cache:    make(map[int64]*models.AggregatedResult),
	}
}

// ComputeLive aggregates the session's votes directly from the ledger.
// Participants within each day are ordered by display name under the
// configured collation, with user ID as the tiebreak. The result's
// timestamp is the latest vote time, so recomputation is reproducible.
func (s *ResultsService) ComputeLive(ctx context.Context, sessionID int64) (*models.AggregatedResult, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err == repository.ErrNotFound {
		return nil, errors.NotFoundf("session %d not found", sessionID)
	} else if err != nil {
		return nil, err
	}

	votes, err := s.repo.ListVotes(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := &models.AggregatedResult{
		SessionID: sessionID,
		Days:      make(map[models.Weekday]models.DayResult, len(models.Weekdays)),
	}

	byDay := make(map[models.Weekday][]models.Participant)
	var latest time.Time
	for _, v := range votes {
		result.TotalVotes += len(v.SelectedDays)
		if v.VotedAt.After(latest) {
			latest = v.VotedAt
		}
		p := models.Participant{UserID: v.UserID, UserName: v.UserName, VotedAt: v.VotedAt}
		for _, d := range v.SelectedDays {
			byDay[d] = append(byDay[d], p)
		}
	}
	result.TotalParticipants = len(votes)
	result.ComputedAt = latest

	for _, day := range models.Weekdays {
		participants := byDay[day]
		s.sortParticipants(participants)
		result.Days[day] = models.DayResult{
			Count:        len(participants),
			Participants: participants,
		}
	}
	return result, nil
}

// sortParticipants orders by collated display name, then user ID
func (s *ResultsService) sortParticipants(participants []models.Participant) {
	s.colMu.Lock()
	defer s.colMu.Unlock()
	sort.SliceStable(participants, func(i, j int) bool {
		if c := s.collator.CompareString(participants[i].UserName, participants[j].UserName); c != 0 {
			return c < 0
		}
		return participants[i].UserID < participants[j].UserID
	})
}

// SaveSnapshot computes the session's aggregation from the ledger and
// persists it, replacing any previous snapshot. It may run while voting
// is still open; a snapshot taken mid-window is simply overwritten by
// the next save.
func (s *ResultsService) SaveSnapshot(ctx context.Context, sessionID int64) (*models.AggregatedResult, error) {
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NotFoundf("session %d not found", sessionID)
		}
		return nil, err
	}

	result, err := s.ComputeLive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveAggregatedResult(ctx, result); err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.cache[sessionID] = result
	s.cacheMu.Unlock()

	s.log.Info("Aggregation snapshot saved", "session_id", sessionID,
		"participants", result.TotalParticipants, "votes", result.TotalVotes)
	return result, nil
}

// GetSnapshot returns the stored aggregation for a session, reading
// through an in-process cache. A closed session without a stored
// snapshot is aggregated and persisted on first read; an open one
// reports not-found until an explicit save happens.
func (s *ResultsService) GetSnapshot(ctx context.Context, sessionID int64) (*models.AggregatedResult, error) {
	s.cacheMu.RLock()
	cached, ok := s.cache[sessionID]
	s.cacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err := s.repo.GetAggregatedResult(ctx, sessionID)
	if err == repository.ErrNotFound {
		session, serr := s.repo.GetSession(ctx, sessionID)
		if serr == repository.ErrNotFound {
			return nil, errors.NotFoundf("session %d not found", sessionID)
		}
		if serr != nil {
			return nil, serr
		}
		if !session.IsCompleted {
			return nil, errors.NotFoundf("no saved results for session %d", sessionID)
		}
		return s.SaveSnapshot(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.cache[sessionID] = result
	s.cacheMu.Unlock()
	return result, nil
}

// InvalidateCache drops the cached aggregation for a session. Called
// whenever the session's ledger changes.
func (s *ResultsService) InvalidateCache(sessionID int64) {
	s.cacheMu.Lock()
	delete(s.cache, sessionID)
	s.cacheMu.Unlock()
}
