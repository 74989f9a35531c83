package models

import "time"

// Issue represents a work item time is tracked against. Read-only here;
// issues are owned by the wider platform.
type Issue struct {
	ID                   string    `json:"id"`
	WorkspaceSlug        string    `json:"workspace"`
	ProjectID            string    `json:"project_id"`
	Name                 string    `json:"name"`
	SequenceID           int64     `json:"sequence_id"`
	EstimatedTimeMinutes *int64    `json:"estimated_time_minutes"`
	CreatedAt            time.Time `json:"created_at"`
}

// Module is a grouping of issues, consulted only as a reporting and
// export dimension.
type Module struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ModuleIssue links an issue to a module. An issue may appear in more
// than one module; readers take the earliest link.
type ModuleIssue struct {
	ID         string    `json:"id"`
	ModuleID   string    `json:"module_id"`
	ModuleName string    `json:"module_name"`
	IssueID    string    `json:"issue_id"`
	CreatedAt  time.Time `json:"created_at"`
}
