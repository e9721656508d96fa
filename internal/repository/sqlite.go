package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/clubportal/weekvote/internal/errors"
	"github.com/clubportal/weekvote/internal/models"
)

// DefaultTimeout bounds every storage round trip. Expiry surfaces as a
// StorageTimeout error, retryable by the caller.
const DefaultTimeout = 5 * time.Second

// Repository provides data access methods
type Repository struct {
	db      *sql.DB
	timeout time.Duration
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (disabled-day, vote and schedule
	// rows cascade on session deletion)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db, timeout: DefaultTimeout}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// SetTimeout overrides the per-operation storage timeout.
func (r *Repository) SetTimeout(d time.Duration) {
	r.timeout = d
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// bound derives the deadline-bounded context used by every operation.
func (r *Repository) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// wrapErr converts deadline expiry into the transient StorageTimeout kind.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.StorageTimeout(err)
	}
	return err
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS vote_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			week_start_date DATETIME NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 0,
			is_completed BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		// At most one active session, enforced at the storage level so
		// concurrent creators cannot both slip through the service check.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_active
			ON vote_sessions(is_active) WHERE is_active = 1`,
		`CREATE TABLE IF NOT EXISTS session_disabled_days (
			session_id INTEGER NOT NULL,
			weekday TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			UNIQUE(session_id, weekday),
			FOREIGN KEY (session_id) REFERENCES vote_sessions(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL,
			user_id TEXT NOT NULL,
			user_name TEXT NOT NULL,
			voted_at DATETIME NOT NULL,
			UNIQUE(session_id, user_id),
			FOREIGN KEY (session_id) REFERENCES vote_sessions(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS vote_days (
			vote_id INTEGER NOT NULL,
			weekday TEXT NOT NULL,
			UNIQUE(vote_id, weekday),
			FOREIGN KEY (vote_id) REFERENCES votes(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS aggregated_results (
			session_id INTEGER PRIMARY KEY,
			total_participants INTEGER NOT NULL,
			total_votes INTEGER NOT NULL,
			computed_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES vote_sessions(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS aggregated_participants (
			session_id INTEGER NOT NULL,
			weekday TEXT NOT NULL,
			position INTEGER NOT NULL,
			user_id TEXT NOT NULL,
			user_name TEXT NOT NULL,
			voted_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES aggregated_results(session_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS schedule_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL,
			weekday TEXT NOT NULL,
			game_date DATETIME NOT NULL,
			game_time TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			event_type TEXT NOT NULL DEFAULT 'game',
			confirmed BOOLEAN NOT NULL DEFAULT 0,
			mercenary_count INTEGER NOT NULL DEFAULT 0,
			UNIQUE(session_id, weekday),
			FOREIGN KEY (session_id) REFERENCES vote_sessions(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS schedule_participants (
			entry_id INTEGER NOT NULL,
			user_id TEXT NOT NULL,
			user_name TEXT NOT NULL,
			UNIQUE(entry_id, user_id),
			FOREIGN KEY (entry_id) REFERENCES schedule_entries(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_session ON votes(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_user ON votes(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vote_days_vote ON vote_days(vote_id)`,
		`CREATE INDEX IF NOT EXISTS idx_agg_participants_session ON aggregated_participants(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_schedule_session ON schedule_entries(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_schedule_participants_user ON schedule_participants(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// ==================== Session Methods ====================

// CreateSession inserts a new active session along with its disabled days.
// Returns ErrActiveSessionExists when another session is already active.
func (r *Repository) CreateSession(ctx context.Context, weekStart, startTime, endTime time.Time, disabled []models.DisabledDay) (*models.VoteSession, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO vote_sessions (week_start_date, start_time, end_time, is_active, is_completed, created_at, updated_at)
		VALUES (?, ?, ?, 1, 0, ?, ?)
	`, weekStart, startTime, endTime, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrActiveSessionExists
		}
		return nil, wrapErr(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, wrapErr(err)
	}

	for _, d := range disabled {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_disabled_days (session_id, weekday, reason) VALUES (?, ?, ?)`,
			id, string(d.Day), d.Reason); err != nil {
			return nil, wrapErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrActiveSessionExists
		}
		return nil, wrapErr(err)
	}

	return &models.VoteSession{
		ID:            id,
		WeekStartDate: weekStart,
		StartTime:     startTime,
		EndTime:       endTime,
		IsActive:      true,
		DisabledDays:  disabled,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// GetSession retrieves a session with its disabled days
func (r *Repository) GetSession(ctx context.Context, id int64) (*models.VoteSession, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	return r.getSession(ctx, id)
}

func (r *Repository) getSession(ctx context.Context, id int64) (*models.VoteSession, error) {
	var s models.VoteSession
	err := r.db.QueryRowContext(ctx, `
		SELECT id, week_start_date, start_time, end_time, is_active, is_completed, created_at, updated_at
		FROM vote_sessions WHERE id = ?
	`, id).Scan(&s.ID, &s.WeekStartDate, &s.StartTime, &s.EndTime, &s.IsActive, &s.IsCompleted, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err)
	}

	if s.DisabledDays, err = r.disabledDays(ctx, s.ID); err != nil {
		return nil, wrapErr(err)
	}
	return &s, nil
}

func (r *Repository) disabledDays(ctx context.Context, sessionID int64) ([]models.DisabledDay, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT weekday, reason FROM session_disabled_days WHERE session_id = ? ORDER BY weekday`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []models.DisabledDay
	for rows.Next() {
		var d models.DisabledDay
		var weekday string
		if err := rows.Scan(&weekday, &d.Reason); err != nil {
			return nil, err
		}
		d.Day = models.Weekday(weekday)
		days = append(days, d)
	}
	return days, rows.Err()
}

// GetActiveSession returns the single active session, or ErrNotFound
func (r *Repository) GetActiveSession(ctx context.Context) (*models.VoteSession, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM vote_sessions WHERE is_active = 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	return r.getSession(ctx, id)
}

// ListSessions returns all sessions, newest first, with disabled days
func (r *Repository) ListSessions(ctx context.Context) ([]models.VoteSession, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, week_start_date, start_time, end_time, is_active, is_completed, created_at, updated_at
		FROM vote_sessions ORDER BY week_start_date DESC, id DESC
	`)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var sessions []models.VoteSession
	for rows.Next() {
		var s models.VoteSession
		if err := rows.Scan(&s.ID, &s.WeekStartDate, &s.StartTime, &s.EndTime, &s.IsActive, &s.IsCompleted, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, wrapErr(err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}

	for i := range sessions {
		if sessions[i].DisabledDays, err = r.disabledDays(ctx, sessions[i].ID); err != nil {
			return nil, wrapErr(err)
		}
	}
	return sessions, nil
}

// SetSessionState updates the active/completed flags of a session.
// Activating a session while another is active fails with
// ErrActiveSessionExists via the partial unique index.
func (r *Repository) SetSessionState(ctx context.Context, id int64, active, completed bool) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `
		UPDATE vote_sessions SET is_active = ?, is_completed = ?, updated_at = ?
		WHERE id = ?
	`, active, completed, time.Now(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrActiveSessionExists
		}
		return wrapErr(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return wrapErr(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceDisabledDays swaps the disabled-day set of a session wholesale
func (r *Repository) ReplaceDisabledDays(ctx context.Context, sessionID int64, days []models.DisabledDay) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_disabled_days WHERE session_id = ?`, sessionID); err != nil {
		return wrapErr(err)
	}
	for _, d := range days {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_disabled_days (session_id, weekday, reason) VALUES (?, ?, ?)`,
			sessionID, string(d.Day), d.Reason); err != nil {
			return wrapErr(err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE vote_sessions SET updated_at = ? WHERE id = ?`, time.Now(), sessionID); err != nil {
		return wrapErr(err)
	}

	return wrapErr(tx.Commit())
}

// DeleteSession deletes a session; votes, snapshot and schedule cascade
func (r *Repository) DeleteSession(ctx context.Context, id int64) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM vote_sessions WHERE id = ?`, id)
	if err != nil {
		return wrapErr(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return wrapErr(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSessionsExcept deletes all sessions not listed in keepIDs and
// returns the number removed
func (r *Repository) DeleteSessionsExcept(ctx context.Context, keepIDs []int64) (int64, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	query := `DELETE FROM vote_sessions`
	args := make([]interface{}, 0, len(keepIDs))
	if len(keepIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keepIDs)), ",")
		query += fmt.Sprintf(` WHERE id NOT IN (%s)`, placeholders)
		for _, id := range keepIDs {
			args = append(args, id)
		}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapErr(err)
	}
	n, err := result.RowsAffected()
	return n, wrapErr(err)
}

// CountClosedSessions returns the number of completed sessions
func (r *Repository) CountClosedSessions(ctx context.Context) (int, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vote_sessions WHERE is_completed = 1`).Scan(&count)
	return count, wrapErr(err)
}

// ==================== Vote Methods ====================

// UpsertVote inserts or replaces a member's full weekday selection.
// The (session_id, user_id) constraint makes concurrent re-submissions
// collapse into a single row; last write wins on the server timestamp.
func (r *Repository) UpsertVote(ctx context.Context, sessionID int64, userID, userName string, days []models.Weekday, votedAt time.Time) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO votes (session_id, user_id, user_name, voted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, user_id) DO UPDATE SET
			user_name = excluded.user_name,
			voted_at = excluded.voted_at
	`, sessionID, userID, userName, votedAt); err != nil {
		return wrapErr(err)
	}

	var voteID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM votes WHERE session_id = ? AND user_id = ?`,
		sessionID, userID).Scan(&voteID); err != nil {
		return wrapErr(err)
	}

	// Full replacement: no partial-day edits
	if _, err := tx.ExecContext(ctx, `DELETE FROM vote_days WHERE vote_id = ?`, voteID); err != nil {
		return wrapErr(err)
	}
	for _, day := range days {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vote_days (vote_id, weekday) VALUES (?, ?)`,
			voteID, string(day)); err != nil {
			return wrapErr(err)
		}
	}

	return wrapErr(tx.Commit())
}

// GetVote returns a member's stored selection, or ErrNotFound
func (r *Repository) GetVote(ctx context.Context, sessionID int64, userID string) (*models.Vote, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var v models.Vote
	var voteID int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, user_id, user_name, voted_at
		FROM votes WHERE session_id = ? AND user_id = ?
	`, sessionID, userID).Scan(&voteID, &v.SessionID, &v.UserID, &v.UserName, &v.VotedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err)
	}

	if v.SelectedDays, err = r.voteDays(ctx, voteID); err != nil {
		return nil, wrapErr(err)
	}
	return &v, nil
}

func (r *Repository) voteDays(ctx context.Context, voteID int64) ([]models.Weekday, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT weekday FROM vote_days WHERE vote_id = ?`, voteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []models.Weekday
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, models.Weekday(day))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Canonical Monday-to-Friday order regardless of row order
	sort.Slice(days, func(i, j int) bool { return days[i].Offset() < days[j].Offset() })
	return days, nil
}

// ListVotes returns every vote of a session with its selected days
func (r *Repository) ListVotes(ctx context.Context, sessionID int64) ([]models.Vote, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, user_name, voted_at
		FROM votes WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	var votes []models.Vote
	var ids []int64
	for rows.Next() {
		var v models.Vote
		var voteID int64
		if err := rows.Scan(&voteID, &v.SessionID, &v.UserID, &v.UserName, &v.VotedAt); err != nil {
			return nil, wrapErr(err)
		}
		votes = append(votes, v)
		ids = append(ids, voteID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}

	for i, voteID := range ids {
		if votes[i].SelectedDays, err = r.voteDays(ctx, voteID); err != nil {
			return nil, wrapErr(err)
		}
	}
	return votes, nil
}

// CountVotes returns the number of vote rows in a session
func (r *Repository) CountVotes(ctx context.Context, sessionID int64) (int, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes WHERE session_id = ?`, sessionID).Scan(&count)
	return count, wrapErr(err)
}

// CountVotedSessions returns how many completed sessions a member voted in
func (r *Repository) CountVotedSessions(ctx context.Context, userID string) (int, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT v.session_id)
		FROM votes v
		JOIN vote_sessions s ON v.session_id = s.id
		WHERE v.user_id = ? AND s.is_completed = 1
	`, userID).Scan(&count)
	return count, wrapErr(err)
}

// ==================== Aggregated Result Methods ====================

// SaveAggregatedResult overwrites the stored snapshot for a session.
// Delete-then-insert in one transaction keeps the save idempotent and
// never leaves a partially written snapshot behind.
func (r *Repository) SaveAggregatedResult(ctx context.Context, result *models.AggregatedResult) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM aggregated_results WHERE session_id = ?`, result.SessionID); err != nil {
		return wrapErr(err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO aggregated_results (session_id, total_participants, total_votes, computed_at)
		VALUES (?, ?, ?, ?)
	`, result.SessionID, result.TotalParticipants, result.TotalVotes, result.ComputedAt); err != nil {
		return wrapErr(err)
	}

	for _, day := range models.Weekdays {
		dayResult, ok := result.Days[day]
		if !ok {
			continue
		}
		for pos, p := range dayResult.Participants {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO aggregated_participants (session_id, weekday, position, user_id, user_name, voted_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, result.SessionID, string(day), pos, p.UserID, p.UserName, p.VotedAt); err != nil {
				return wrapErr(err)
			}
		}
	}

	return wrapErr(tx.Commit())
}

// GetAggregatedResult returns the persisted snapshot, or ErrNotFound if
// the session was never aggregated
func (r *Repository) GetAggregatedResult(ctx context.Context, sessionID int64) (*models.AggregatedResult, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result := &models.AggregatedResult{SessionID: sessionID, Days: make(map[models.Weekday]models.DayResult)}
	err := r.db.QueryRowContext(ctx, `
		SELECT total_participants, total_votes, computed_at
		FROM aggregated_results WHERE session_id = ?
	`, sessionID).Scan(&result.TotalParticipants, &result.TotalVotes, &result.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT weekday, user_id, user_name, voted_at
		FROM aggregated_participants
		WHERE session_id = ? ORDER BY weekday, position
	`, sessionID)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var weekday string
		var p models.Participant
		if err := rows.Scan(&weekday, &p.UserID, &p.UserName, &p.VotedAt); err != nil {
			return nil, wrapErr(err)
		}
		day := models.Weekday(weekday)
		dr := result.Days[day]
		dr.Participants = append(dr.Participants, p)
		dr.Count = len(dr.Participants)
		result.Days[day] = dr
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}

	// Every weekday appears in the snapshot, voted or not
	for _, day := range models.Weekdays {
		if _, ok := result.Days[day]; !ok {
			result.Days[day] = models.DayResult{}
		}
	}
	return result, nil
}

// ==================== Schedule Methods ====================

// ReplaceScheduleEntries overwrites a session's derived schedule wholesale
// and returns the stored entries with assigned IDs
func (r *Repository) ReplaceScheduleEntries(ctx context.Context, sessionID int64, entries []models.ScheduleEntry) ([]models.ScheduleEntry, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM schedule_entries WHERE session_id = ?`, sessionID); err != nil {
		return nil, wrapErr(err)
	}

	stored := make([]models.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_entries (session_id, weekday, game_date, game_time, location, event_type, confirmed, mercenary_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, sessionID, string(e.Day), e.GameDate, e.GameTime, e.Location, e.EventType, e.Confirmed, e.MercenaryCount)
		if err != nil {
			return nil, wrapErr(err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, wrapErr(err)
		}
		for _, p := range e.Participants {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO schedule_participants (entry_id, user_id, user_name) VALUES (?, ?, ?)
			`, id, p.UserID, p.UserName); err != nil {
				return nil, wrapErr(err)
			}
		}
		e.ID = id
		e.SessionID = sessionID
		stored = append(stored, e)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapErr(err)
	}
	return stored, nil
}

// GetScheduleEntry retrieves a single schedule entry with its roster
func (r *Repository) GetScheduleEntry(ctx context.Context, id int64) (*models.ScheduleEntry, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var e models.ScheduleEntry
	var weekday string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, weekday, game_date, game_time, location, event_type, confirmed, mercenary_count
		FROM schedule_entries WHERE id = ?
	`, id).Scan(&e.ID, &e.SessionID, &weekday, &e.GameDate, &e.GameTime, &e.Location, &e.EventType, &e.Confirmed, &e.MercenaryCount)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	e.Day = models.Weekday(weekday)

	if e.Participants, err = r.entryParticipants(ctx, e.ID); err != nil {
		return nil, wrapErr(err)
	}
	return &e, nil
}

func (r *Repository) entryParticipants(ctx context.Context, entryID int64) ([]models.Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, user_name FROM schedule_participants WHERE entry_id = ? ORDER BY user_name, user_id`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.UserName); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// ListScheduleEntries returns entries whose game date falls in [from, to)
func (r *Repository) ListScheduleEntries(ctx context.Context, from, to time.Time) ([]models.ScheduleEntry, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, weekday, game_date, game_time, location, event_type, confirmed, mercenary_count
		FROM schedule_entries
		WHERE game_date >= ? AND game_date < ?
		ORDER BY game_date
	`, from, to)
	if err != nil {
		return nil, wrapErr(err)
	}
	return r.collectEntries(ctx, rows)
}

// ListSessionSchedule returns all entries derived from a session
func (r *Repository) ListSessionSchedule(ctx context.Context, sessionID int64) ([]models.ScheduleEntry, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, weekday, game_date, game_time, location, event_type, confirmed, mercenary_count
		FROM schedule_entries WHERE session_id = ? ORDER BY game_date
	`, sessionID)
	if err != nil {
		return nil, wrapErr(err)
	}
	return r.collectEntries(ctx, rows)
}

func (r *Repository) collectEntries(ctx context.Context, rows *sql.Rows) ([]models.ScheduleEntry, error) {
	defer rows.Close()

	var entries []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		var weekday string
		if err := rows.Scan(&e.ID, &e.SessionID, &weekday, &e.GameDate, &e.GameTime, &e.Location, &e.EventType, &e.Confirmed, &e.MercenaryCount); err != nil {
			return nil, wrapErr(err)
		}
		e.Day = models.Weekday(weekday)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}

	for i := range entries {
		participants, err := r.entryParticipants(ctx, entries[i].ID)
		if err != nil {
			return nil, wrapErr(err)
		}
		entries[i].Participants = participants
	}
	return entries, nil
}

// UpdateScheduleEntry updates the editable fields of an entry
func (r *Repository) UpdateScheduleEntry(ctx context.Context, id int64, gameTime, location, eventType string, mercenaryCount int) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `
		UPDATE schedule_entries SET game_time = ?, location = ?, event_type = ?, mercenary_count = ?
		WHERE id = ?
	`, gameTime, location, eventType, mercenaryCount, id)
	if err != nil {
		return wrapErr(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return wrapErr(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEntryConfirmed flags an entry as confirmed (or not)
func (r *Repository) SetEntryConfirmed(ctx context.Context, id int64, confirmed bool) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx,
		`UPDATE schedule_entries SET confirmed = ? WHERE id = ?`, confirmed, id)
	if err != nil {
		return wrapErr(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return wrapErr(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasConfirmedEntries reports whether a session has any confirmed entries
func (r *Repository) HasConfirmedEntries(ctx context.Context, sessionID int64) (bool, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schedule_entries WHERE session_id = ? AND confirmed = 1)`,
		sessionID).Scan(&exists)
	return exists, wrapErr(err)
}

// CountConfirmedGames returns the total number of confirmed games
func (r *Repository) CountConfirmedGames(ctx context.Context) (int, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schedule_entries WHERE confirmed = 1`).Scan(&count)
	return count, wrapErr(err)
}

// CountGamesForUser returns how many confirmed games include the member
func (r *Repository) CountGamesForUser(ctx context.Context, userID string) (int, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM schedule_participants sp
		JOIN schedule_entries se ON sp.entry_id = se.id
		WHERE sp.user_id = ? AND se.confirmed = 1
	`, userID).Scan(&count)
	return count, wrapErr(err)
}
