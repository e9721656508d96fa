package models

import "time"

// Weekday is one of the five votable days, MON through FRI.
type Weekday string

const (
	Monday    Weekday = "MON"
	Tuesday   Weekday = "TUE"
	Wednesday Weekday = "WED"
	Thursday  Weekday = "THU"
	Friday    Weekday = "FRI"
)

// Weekdays lists the votable days in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// weekdayIndex maps each votable day to its offset from Monday.
var weekdayIndex = map[Weekday]int{
	Monday: 0, Tuesday: 1, Wednesday: 2, Thursday: 3, Friday: 4,
}

// Valid reports whether d is one of MON..FRI.
func (d Weekday) Valid() bool {
	_, ok := weekdayIndex[d]
	return ok
}

// Offset returns the day's offset from Monday (MON=0 .. FRI=4).
// Returns -1 for an invalid day.
func (d Weekday) Offset() int {
	idx, ok := weekdayIndex[d]
	if !ok {
		return -1
	}
	return idx
}

// DisabledDay is a weekday an administrator has excluded from voting,
// with the stated reason shown to members.
type DisabledDay struct {
	Day    Weekday `json:"day"`
	Reason string  `json:"reason"`
}

// VoteSession is a time-boxed period during which members select which
// weekdays of the following week they can attend. At most one session
// is active at any time.
type VoteSession struct {
	ID            int64         `json:"id"`
	WeekStartDate time.Time     `json:"week_start_date"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	IsActive      bool          `json:"is_active"`
	IsCompleted   bool          `json:"is_completed"`
	DisabledDays  []DisabledDay `json:"disabled_days,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// DayDisabled reports whether the given weekday is excluded for this session.
func (s *VoteSession) DayDisabled(day Weekday) bool {
	for _, d := range s.DisabledDays {
		if d.Day == day {
			return true
		}
	}
	return false
}

// Vote is one member's full weekday selection for a session. A member
// holds at most one vote per session; resubmission replaces the whole
// selection.
type Vote struct {
	SessionID    int64     `json:"session_id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	SelectedDays []Weekday `json:"selected_days"`
	VotedAt      time.Time `json:"voted_at"`
}

// Participant identifies a member inside an aggregated day result.
type Participant struct {
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	VotedAt  time.Time `json:"voted_at"`
}

// DayResult holds the aggregated outcome for a single weekday.
type DayResult struct {
	Count        int           `json:"count"`
	Participants []Participant `json:"participants"`
}

// AggregatedResult is the persisted per-session vote summary. It is a
// cache of the ledger, recomputable from the Vote rows at any time.
type AggregatedResult struct {
	SessionID         int64                 `json:"session_id"`
	Days              map[Weekday]DayResult `json:"days"`
	TotalParticipants int                   `json:"total_participants"`
	TotalVotes        int                   `json:"total_votes"`
	ComputedAt        time.Time             `json:"computed_at"`
}

// ScheduleEntry is a derived game for one weekday of the week after the
// session's voted week.
type ScheduleEntry struct {
	ID             int64         `json:"id"`
	SessionID      int64         `json:"session_id"`
	Day            Weekday       `json:"day"`
	GameDate       time.Time     `json:"game_date"`
	GameTime       string        `json:"game_time"`
	Location       string        `json:"location"`
	EventType      string        `json:"event_type"`
	Confirmed      bool          `json:"confirmed"`
	MercenaryCount int           `json:"mercenary_count"`
	Participants   []Participant `json:"participants"`
}

// MemberStats holds a member's derived participation percentages.
type MemberStats struct {
	UserID                string `json:"user_id"`
	VoteParticipationRate int    `json:"vote_participation_rate"`
	GameParticipationRate int    `json:"game_participation_rate"`
	VotedSessions         int    `json:"voted_sessions"`
	TotalSessions         int    `json:"total_sessions"`
	AttendedGames         int    `json:"attended_games"`
	TotalGames            int    `json:"total_games"`
}

// WSMessage represents a WebSocket push message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
