// Package timewindow provides the canonical week arithmetic used by the
// vote-session engine. Every other component resolves "this week" and
// "next week" through a Resolver instead of doing its own date math.
package timewindow

import (
	"time"

	"github.com/clubportal/weekvote/internal/models"
)

// Clock supplies "now". Substituted in tests so no component reads the
// wall clock directly.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Resolver computes week boundaries in the club's local time zone.
// All methods are pure: no I/O, no hidden state.
type Resolver struct {
	clock Clock
	loc   *time.Location
}

// New creates a Resolver using the given clock and location.
func New(clock Clock, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{clock: clock, loc: loc}
}

// Location returns the resolver's time zone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Now returns the current instant in the resolver's location.
func (r *Resolver) Now() time.Time {
	return r.clock.Now().In(r.loc)
}

// WeekStart returns the Monday 00:00 of the week containing t.
// Sunday rolls backward six days to the prior Monday.
func (r *Resolver) WeekStart(t time.Time) time.Time {
	t = t.In(r.loc)
	// time.Weekday numbers Sunday as 0; shift so Monday is 0.
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.loc)
}

// NextWeekStart returns the Monday 00:00 of the week after the one
// containing t. A Sunday therefore maps to the very next day.
func (r *Resolver) NextWeekStart(t time.Time) time.Time {
	return r.WeekStart(t).AddDate(0, 0, 7)
}

// ThisWeekStart returns the Monday of the current week.
func (r *Resolver) ThisWeekStart() time.Time {
	return r.WeekStart(r.Now())
}

// WeekDates returns the Mon-Fri dates of the week anchored at weekStart.
// weekStart is normalized to its own Monday first, so any instant within
// the week yields the same five dates.
func (r *Resolver) WeekDates(weekStart time.Time) [5]time.Time {
	monday := r.WeekStart(weekStart)
	var dates [5]time.Time
	for i := range dates {
		dates[i] = monday.AddDate(0, 0, i)
	}
	return dates
}

// DateFor returns the calendar date of the given weekday within the week
// anchored at weekStart.
func (r *Resolver) DateFor(weekStart time.Time, day models.Weekday) time.Time {
	return r.WeekStart(weekStart).AddDate(0, 0, day.Offset())
}

// DefaultVoteWindow returns the default opinion-collection window for a
// session created "now": this week's Monday 00:01 through next week's
// Friday 17:00.
func (r *Resolver) DefaultVoteWindow(now time.Time) (start, end time.Time) {
	monday := r.WeekStart(now)
	nextMonday := monday.AddDate(0, 0, 7)
	start = monday.Add(time.Minute)
	end = nextMonday.AddDate(0, 0, 4).Add(17 * time.Hour)
	return start, end
}

// SameWeek reports whether a and b fall within the same Mon-Sun week.
func (r *Resolver) SameWeek(a, b time.Time) bool {
	return r.WeekStart(a).Equal(r.WeekStart(b))
}
