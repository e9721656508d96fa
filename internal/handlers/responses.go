package handlers

import "github.com/clubportal/weekvote/internal/models"

// BulkDeleteResponse reports how many sessions a bulk delete removed
type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// ScheduleResponse wraps a derived schedule
type ScheduleResponse struct {
	SessionID int64                  `json:"session_id"`
	Entries   []models.ScheduleEntry `json:"entries"`
}

// VoteStatusResponse is the member's view of their own vote
type VoteStatusResponse struct {
	Voted        bool             `json:"voted"`
	SessionID    int64            `json:"session_id"`
	SelectedDays []models.Weekday `json:"selected_days,omitempty"`
	VotedAt      string           `json:"voted_at,omitempty"`
}
