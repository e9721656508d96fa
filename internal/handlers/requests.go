package handlers

// DisabledDayRequest is one excluded weekday inside a session request
type DisabledDayRequest struct {
	Day    string `json:"day"`
	Reason string `json:"reason"`
}

// SessionCreateRequest represents a request to open a vote session.
// Empty dates fall back to the engine's defaults for the coming week.
type SessionCreateRequest struct {
	WeekStartDate string               `json:"week_start_date,omitempty"`
	StartTime     string               `json:"start_time,omitempty"`
	EndTime       string               `json:"end_time,omitempty"`
	DisabledDays  []DisabledDayRequest `json:"disabled_days,omitempty"`
}

// DisabledDaysUpdateRequest replaces a session's excluded weekdays
type DisabledDaysUpdateRequest struct {
	DisabledDays []DisabledDayRequest `json:"disabled_days"`
}

// BulkDeleteRequest removes every session except the listed IDs
type BulkDeleteRequest struct {
	KeepIDs []int64 `json:"keep_ids"`
}

// VoteSubmitRequest represents a member's weekday selection
type VoteSubmitRequest struct {
	SelectedDays []string `json:"selected_days"`
}

// ScheduleDeriveRequest controls a schedule derivation
type ScheduleDeriveRequest struct {
	Force bool `json:"force"`
}

// ScheduleEntryUpdateRequest edits one derived schedule entry
type ScheduleEntryUpdateRequest struct {
	GameTime       string `json:"game_time"`
	Location       string `json:"location"`
	EventType      string `json:"event_type"`
	MercenaryCount int    `json:"mercenary_count"`
}

// ConfirmEntryRequest marks a schedule entry confirmed or tentative
type ConfirmEntryRequest struct {
	Confirmed bool `json:"confirmed"`
}

// LoginRequest carries the admin password
type LoginRequest struct {
	Password string `json:"password"`
}
