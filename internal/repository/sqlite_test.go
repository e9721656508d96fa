package repository_test

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/clubportal/weekvote/internal/models"
	"github.com/clubportal/weekvote/internal/repository"
	"github.com/clubportal/weekvote/internal/testutil"
)

func createTestSession(t *testing.T, repo *repository.Repository) *models.VoteSession {
	t.Helper()
	ctx := context.Background()
	weekStart := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	session, err := repo.CreateSession(ctx, weekStart,
		weekStart.Add(time.Minute), weekStart.AddDate(0, 0, 11).Add(17*time.Hour), nil)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return session
}

// TestCreateSession_SecondActiveRejected verifies the one-active-session
// constraint at the storage level
func TestCreateSession_SecondActiveRejected(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	createTestSession(t, repo)

	weekStart := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	_, err := repo.CreateSession(ctx, weekStart, weekStart, weekStart.AddDate(0, 0, 4), nil)
	if err != repository.ErrActiveSessionExists {
		t.Fatalf("expected ErrActiveSessionExists, got %v", err)
	}
}

// TestCreateSession_ConcurrentSingleWinner races several creates against
// an empty table; the partial unique index must admit exactly one
func TestCreateSession_ConcurrentSingleWinner(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	weekStart := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	const racers = 8
	var release sync.WaitGroup
	release.Add(1)
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		go func() {
			release.Wait()
			_, err := repo.CreateSession(ctx, weekStart, weekStart, weekStart.AddDate(0, 0, 4), nil)
			errs <- err
		}()
	}
	release.Done()

	var created, rejected int
	for i := 0; i < racers; i++ {
		switch err := <-errs; err {
		case nil:
			created++
		case repository.ErrActiveSessionExists:
			rejected++
		default:
			t.Fatalf("unexpected CreateSession error: %v", err)
		}
	}
	if created != 1 {
		t.Errorf("created %d active sessions, want exactly 1", created)
	}
	if rejected != racers-1 {
		t.Errorf("rejected %d creates, want %d", rejected, racers-1)
	}

	sessions, err := repo.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("stored %d sessions, want 1", len(sessions))
	}
}

// TestCreateSession_AllowedAfterClose verifies a new session can start
// once the previous one is closed
func TestCreateSession_AllowedAfterClose(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	first := createTestSession(t, repo)

	if err := repo.SetSessionState(ctx, first.ID, false, true); err != nil {
		t.Fatalf("SetSessionState failed: %v", err)
	}

	weekStart := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	second, err := repo.CreateSession(ctx, weekStart, weekStart, weekStart.AddDate(0, 0, 4), nil)
	if err != nil {
		t.Fatalf("CreateSession after close failed: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a new session ID")
	}
}

// TestSetSessionState_ReactivateBlockedByActive verifies reopening is
// rejected while another session holds the active slot
func TestSetSessionState_ReactivateBlockedByActive(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	first := createTestSession(t, repo)
	if err := repo.SetSessionState(ctx, first.ID, false, true); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	weekStart := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	if _, err := repo.CreateSession(ctx, weekStart, weekStart, weekStart.AddDate(0, 0, 4), nil); err != nil {
		t.Fatalf("second CreateSession failed: %v", err)
	}

	err := repo.SetSessionState(ctx, first.ID, true, false)
	if err != repository.ErrActiveSessionExists {
		t.Fatalf("expected ErrActiveSessionExists, got %v", err)
	}
}

// TestGetActiveSession_NotFoundWhenNoneActive verifies the sentinel
func TestGetActiveSession_NotFoundWhenNoneActive(t *testing.T) {
	repo := testutil.NewTestRepository(t)

	_, err := repo.GetActiveSession(context.Background())
	if err != repository.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestCreateSession_StoresDisabledDays verifies disabled days round-trip
func TestCreateSession_StoresDisabledDays(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()

	weekStart := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
	disabled := []models.DisabledDay{
		{Day: models.Wednesday, Reason: "venue maintenance"},
	}
	session, err := repo.CreateSession(ctx, weekStart, weekStart, weekStart.AddDate(0, 0, 4), disabled)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := repo.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(got.DisabledDays) != 1 || got.DisabledDays[0].Day != models.Wednesday {
		t.Errorf("unexpected disabled days: %+v", got.DisabledDays)
	}
	if got.DisabledDays[0].Reason != "venue maintenance" {
		t.Errorf("reason = %q", got.DisabledDays[0].Reason)
	}
}

// TestUpsertVote_ReplacesSelection verifies resubmission overwrites the
// entire day set
func TestUpsertVote_ReplacesSelection(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	session := createTestSession(t, repo)

	votedAt := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	if err := repo.UpsertVote(ctx, session.ID, "u1", "Alice",
		[]models.Weekday{models.Monday, models.Wednesday, models.Friday}, votedAt); err != nil {
		t.Fatalf("first UpsertVote failed: %v", err)
	}

	later := votedAt.Add(time.Hour)
	if err := repo.UpsertVote(ctx, session.ID, "u1", "Alice",
		[]models.Weekday{models.Tuesday}, later); err != nil {
		t.Fatalf("second UpsertVote failed: %v", err)
	}

	vote, err := repo.GetVote(ctx, session.ID, "u1")
	if err != nil {
		t.Fatalf("GetVote failed: %v", err)
	}
	if len(vote.SelectedDays) != 1 || vote.SelectedDays[0] != models.Tuesday {
		t.Errorf("expected [TUE], got %v", vote.SelectedDays)
	}
	if !vote.VotedAt.Equal(later) {
		t.Errorf("voted_at = %s, want %s", vote.VotedAt, later)
	}

	count, err := repo.CountVotes(ctx, session.ID)
	if err != nil {
		t.Fatalf("CountVotes failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 vote row, got %d", count)
	}
}

// TestGetVote_CanonicalDayOrder verifies stored days come back in
// Monday-to-Friday order even when inserted shuffled
func TestGetVote_CanonicalDayOrder(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	session := createTestSession(t, repo)

	votedAt := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	if err := repo.UpsertVote(ctx, session.ID, "u1", "Alice",
		[]models.Weekday{models.Friday, models.Monday, models.Wednesday}, votedAt); err != nil {
		t.Fatalf("UpsertVote failed: %v", err)
	}

	vote, err := repo.GetVote(ctx, session.ID, "u1")
	if err != nil {
		t.Fatalf("GetVote failed: %v", err)
	}
	want := []models.Weekday{models.Monday, models.Wednesday, models.Friday}
	if !reflect.DeepEqual(vote.SelectedDays, want) {
		t.Errorf("SelectedDays = %v, want %v", vote.SelectedDays, want)
	}

	votes, err := repo.ListVotes(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListVotes failed: %v", err)
	}
	if len(votes) != 1 || !reflect.DeepEqual(votes[0].SelectedDays, want) {
		t.Errorf("ListVotes days = %v, want %v", votes, want)
	}
}

// TestUpsertVote_EmptySelectionAllowed verifies a member may record
// "no days this week"
func TestUpsertVote_EmptySelectionAllowed(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	session := createTestSession(t, repo)

	if err := repo.UpsertVote(ctx, session.ID, "u2", "Bob", nil, time.Now()); err != nil {
		t.Fatalf("UpsertVote with empty days failed: %v", err)
	}

	vote, err := repo.GetVote(ctx, session.ID, "u2")
	if err != nil {
		t.Fatalf("GetVote failed: %v", err)
	}
	if len(vote.SelectedDays) != 0 {
		t.Errorf("expected no days, got %v", vote.SelectedDays)
	}
}

// TestDeleteSession_CascadesVotesAndSchedule verifies dependent rows die
// with their session
func TestDeleteSession_CascadesVotesAndSchedule(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	session := createTestSession(t, repo)

	if err := repo.UpsertVote(ctx, session.ID, "u1", "Alice",
		[]models.Weekday{models.Monday}, time.Now()); err != nil {
		t.Fatalf("UpsertVote failed: %v", err)
	}
	if _, err := repo.ReplaceScheduleEntries(ctx, session.ID, []models.ScheduleEntry{
		{Day: models.Monday, GameDate: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)},
	}); err != nil {
		t.Fatalf("ReplaceScheduleEntries failed: %v", err)
	}

	if err := repo.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	if _, err := repo.GetVote(ctx, session.ID, "u1"); err != repository.ErrNotFound {
		t.Errorf("expected vote gone, got %v", err)
	}
	entries, err := repo.ListSessionSchedule(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListSessionSchedule failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected schedule gone, got %d entries", len(entries))
	}
}

// TestDeleteSessionsExcept_KeepsListed verifies bulk delete semantics
func TestDeleteSessionsExcept_KeepsListed(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		weekStart := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*i)
		s, err := repo.CreateSession(ctx, weekStart, weekStart, weekStart.AddDate(0, 0, 4), nil)
		if err != nil {
			t.Fatalf("CreateSession %d failed: %v", i, err)
		}
		ids = append(ids, s.ID)
		if err := repo.SetSessionState(ctx, s.ID, false, true); err != nil {
			t.Fatalf("close %d failed: %v", i, err)
		}
	}

	deleted, err := repo.DeleteSessionsExcept(ctx, []int64{ids[2]})
	if err != nil {
		t.Fatalf("DeleteSessionsExcept failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	sessions, err := repo.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != ids[2] {
		t.Errorf("unexpected surviving sessions: %+v", sessions)
	}
}

// TestSaveAggregatedResult_Idempotent verifies a resave replaces the
// snapshot instead of accumulating rows
func TestSaveAggregatedResult_Idempotent(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	session := createTestSession(t, repo)

	computedAt := time.Date(2025, 6, 13, 12, 0, 0, 0, time.UTC)
	result := &models.AggregatedResult{
		SessionID: session.ID,
		Days: map[models.Weekday]models.DayResult{
			models.Monday: {Count: 2, Participants: []models.Participant{
				{UserID: "u1", UserName: "Alice", VotedAt: computedAt},
				{UserID: "u2", UserName: "Bob", VotedAt: computedAt},
			}},
		},
		TotalParticipants: 2,
		TotalVotes:        2,
		ComputedAt:        computedAt,
	}

	for i := 0; i < 2; i++ {
		if err := repo.SaveAggregatedResult(ctx, result); err != nil {
			t.Fatalf("SaveAggregatedResult #%d failed: %v", i+1, err)
		}
	}

	got, err := repo.GetAggregatedResult(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetAggregatedResult failed: %v", err)
	}
	if got.Days[models.Monday].Count != 2 {
		t.Errorf("MON count = %d, want 2", got.Days[models.Monday].Count)
	}
	if len(got.Days[models.Monday].Participants) != 2 {
		t.Errorf("MON participants = %d, want 2", len(got.Days[models.Monday].Participants))
	}
	if got.Days[models.Monday].Participants[0].UserID != "u1" {
		t.Errorf("participant order not preserved: %+v", got.Days[models.Monday].Participants)
	}
}

// TestGetAggregatedResult_FillsEmptyDays verifies all five weekdays are
// present in a loaded snapshot
func TestGetAggregatedResult_FillsEmptyDays(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	session := createTestSession(t, repo)

	result := &models.AggregatedResult{
		SessionID:  session.ID,
		Days:       map[models.Weekday]models.DayResult{},
		ComputedAt: time.Now(),
	}
	if err := repo.SaveAggregatedResult(ctx, result); err != nil {
		t.Fatalf("SaveAggregatedResult failed: %v", err)
	}

	got, err := repo.GetAggregatedResult(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetAggregatedResult failed: %v", err)
	}
	for _, day := range models.Weekdays {
		dr, ok := got.Days[day]
		if !ok {
			t.Errorf("day %s missing from snapshot", day)
			continue
		}
		if dr.Count != 0 {
			t.Errorf("day %s count = %d, want 0", day, dr.Count)
		}
	}
}

// TestReplaceScheduleEntries_Overwrites verifies re-derivation replaces
// the prior schedule wholesale
func TestReplaceScheduleEntries_Overwrites(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	session := createTestSession(t, repo)
	gameDate := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	first, err := repo.ReplaceScheduleEntries(ctx, session.ID, []models.ScheduleEntry{
		{Day: models.Monday, GameDate: gameDate},
		{Day: models.Wednesday, GameDate: gameDate.AddDate(0, 0, 2)},
	})
	if err != nil {
		t.Fatalf("first ReplaceScheduleEntries failed: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(first))
	}

	second, err := repo.ReplaceScheduleEntries(ctx, session.ID, []models.ScheduleEntry{
		{Day: models.Friday, GameDate: gameDate.AddDate(0, 0, 4)},
	})
	if err != nil {
		t.Fatalf("second ReplaceScheduleEntries failed: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(second))
	}

	entries, err := repo.ListSessionSchedule(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListSessionSchedule failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Day != models.Friday {
		t.Errorf("expected only FRI entry, got %+v", entries)
	}
}

// TestScheduleEntry_UpdateAndConfirm verifies entry edits persist
func TestScheduleEntry_UpdateAndConfirm(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()
	session := createTestSession(t, repo)

	entries, err := repo.ReplaceScheduleEntries(ctx, session.ID, []models.ScheduleEntry{
		{Day: models.Monday, GameDate: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), GameTime: "20:00"},
	})
	if err != nil {
		t.Fatalf("ReplaceScheduleEntries failed: %v", err)
	}
	id := entries[0].ID

	if err := repo.UpdateScheduleEntry(ctx, id, "21:30", "North Hall", "friendly", 2); err != nil {
		t.Fatalf("UpdateScheduleEntry failed: %v", err)
	}
	if err := repo.SetEntryConfirmed(ctx, id, true); err != nil {
		t.Fatalf("SetEntryConfirmed failed: %v", err)
	}

	got, err := repo.GetScheduleEntry(ctx, id)
	if err != nil {
		t.Fatalf("GetScheduleEntry failed: %v", err)
	}
	if got.GameTime != "21:30" || got.Location != "North Hall" || got.EventType != "friendly" || got.MercenaryCount != 2 {
		t.Errorf("entry not updated: %+v", got)
	}
	if !got.Confirmed {
		t.Error("entry should be confirmed")
	}

	confirmed, err := repo.HasConfirmedEntries(ctx, session.ID)
	if err != nil {
		t.Fatalf("HasConfirmedEntries failed: %v", err)
	}
	if !confirmed {
		t.Error("HasConfirmedEntries should report true")
	}
}

// TestCountVotedSessions_OnlyCompleted verifies participation counting
// ignores the still-open session
func TestCountVotedSessions_OnlyCompleted(t *testing.T) {
	repo := testutil.NewTestRepository(t)
	ctx := context.Background()

	s1 := createTestSession(t, repo)
	if err := repo.UpsertVote(ctx, s1.ID, "u1", "Alice", []models.Weekday{models.Monday}, time.Now()); err != nil {
		t.Fatalf("UpsertVote failed: %v", err)
	}
	if err := repo.SetSessionState(ctx, s1.ID, false, true); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	weekStart := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	s2, err := repo.CreateSession(ctx, weekStart, weekStart, weekStart.AddDate(0, 0, 4), nil)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := repo.UpsertVote(ctx, s2.ID, "u1", "Alice", []models.Weekday{models.Monday}, time.Now()); err != nil {
		t.Fatalf("UpsertVote failed: %v", err)
	}

	count, err := repo.CountVotedSessions(ctx, "u1")
	if err != nil {
		t.Fatalf("CountVotedSessions failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 completed voted session, got %d", count)
	}
}
