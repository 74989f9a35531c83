// Package store provides persistence for time entries and read-only
// lookups of the collaborator entities (projects, issues, modules,
// users) this service consumes but does not own.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tracklite/tracklite/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist or is
	// soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateTimer is returned by StartTimer when the user already
	// has an active timer on the same issue.
	ErrDuplicateTimer = errors.New("active timer already exists for this issue")
)

// TimeEntryFilter narrows a Find query. Zero values mean "no filter".
// From/To are inclusive and compared against the entry's creation date,
// not the full instant.
type TimeEntryFilter struct {
	WorkspaceSlug string
	ProjectID     string
	IssueID       string
	UserID        string
	CompletedOnly bool
	From          *time.Time
	To            *time.Time
}

// TimeEntryStore persists time entries. Soft-deleted entries are
// excluded from every method. Results come back newest-created first.
type TimeEntryStore interface {
	Find(ctx context.Context, filter TimeEntryFilter) ([]*models.TimeEntry, error)
	Get(ctx context.Context, id string) (*models.TimeEntry, error)
	Create(ctx context.Context, entry *models.TimeEntry) error
	Update(ctx context.Context, entry *models.TimeEntry) error
	SoftDelete(ctx context.Context, id, actorID string) error

	// ActiveTimer returns the user's running timer on the given issue,
	// or ErrNotFound.
	ActiveTimer(ctx context.Context, userID, issueID string) (*models.TimeEntry, error)

	// StartTimer atomically stops every other active timer belonging to
	// entry.UserID (setting ended_at to now and deriving the duration)
	// and creates entry as the new running timer. The write sequence is
	// serialized per user so concurrent starts cannot both observe "no
	// active timer". Returns the preempted timers. Fails with
	// ErrDuplicateTimer if a timer is already running on entry.IssueID.
	StartTimer(ctx context.Context, entry *models.TimeEntry, now time.Time) ([]*models.TimeEntry, error)
}

// LookupStore reads the collaborator entities owned by the wider
// platform.
type LookupStore interface {
	ProjectByID(ctx context.Context, id string) (*models.Project, error)
	IssueByID(ctx context.Context, id string) (*models.Issue, error)
	UserByID(ctx context.Context, id string) (*models.User, error)

	// IsProjectAdmin reports whether the user holds an active admin
	// membership on the project.
	IsProjectAdmin(ctx context.Context, projectID, userID string) (bool, error)

	// ModuleForIssue returns the module the issue belongs to, or nil if
	// it belongs to none. When an issue is linked to several modules
	// the earliest link wins; that tie-break is a known simplification.
	ModuleForIssue(ctx context.Context, issueID string) (*models.Module, error)
}

// Store bundles both interfaces; the Postgres and memory
// implementations satisfy it.
type Store interface {
	TimeEntryStore
	LookupStore
}
