package models

import (
	"time"

	"github.com/tracklite/tracklite/internal/timeutil"
)

// EntrySource records how a time entry was produced.
type EntrySource string

const (
	SourceManual EntrySource = "manual"
	SourceTimer  EntrySource = "timer"
)

// Valid reports whether s is a known source.
func (s EntrySource) Valid() bool {
	return s == SourceManual || s == SourceTimer
}

// TimeEntry is a record of time spent by one user on one issue. The
// workspace/project/issue scope is denormalized onto the row so reads
// never need a join back into the platform tables.
type TimeEntry struct {
	ID              string      `json:"id"`
	WorkspaceSlug   string      `json:"workspace"`
	ProjectID       string      `json:"project_id"`
	IssueID         string      `json:"issue_id"`
	UserID          string      `json:"user_id"`
	StartedAt       *time.Time  `json:"started_at"`
	EndedAt         *time.Time  `json:"ended_at"`
	DurationSeconds int64       `json:"duration_seconds"`
	Source          EntrySource `json:"source"`
	Note            string      `json:"note"`
	IsBillable      bool        `json:"is_billable"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	CreatedBy       string      `json:"created_by"`
	UpdatedBy       string      `json:"updated_by"`
	DeletedAt       *time.Time  `json:"-"`
}

// IsActive reports whether the entry is a running timer: started but
// not yet ended.
func (e *TimeEntry) IsActive() bool {
	return e.Source == SourceTimer && e.StartedAt != nil && e.EndedAt == nil
}

// IsCompleted reports whether the entry counts toward report and
// export totals: ended_at is set, regardless of source.
func (e *TimeEntry) IsCompleted() bool {
	return e.EndedAt != nil
}

// TimeEntryView is the API shape of an entry: the row plus the derived
// duration conversions and the active flag.
type TimeEntryView struct {
	TimeEntry
	DurationHours   float64 `json:"duration_hours"`
	DurationMinutes float64 `json:"duration_minutes"`
	Active          bool    `json:"is_active"`
}

// View builds the API shape for the entry.
func (e *TimeEntry) View() TimeEntryView {
	return TimeEntryView{
		TimeEntry:       *e,
		DurationHours:   timeutil.Hours(e.DurationSeconds),
		DurationMinutes: timeutil.Minutes(e.DurationSeconds),
		Active:          e.IsActive(),
	}
}

// Views builds the API shape for a slice of entries, preserving order.
func Views(entries []*TimeEntry) []TimeEntryView {
	views := make([]TimeEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, e.View())
	}
	return views
}
