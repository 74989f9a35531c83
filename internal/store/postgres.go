package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/timeutil"
)

const timeEntryColumns = `id, workspace_slug, project_id, issue_id, user_id,
	started_at, ended_at, duration_seconds, source, note, is_billable,
	created_at, updated_at, created_by, updated_by`

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func scanTimeEntry(row pgx.Row) (*models.TimeEntry, error) {
	var e models.TimeEntry
	err := row.Scan(
		&e.ID, &e.WorkspaceSlug, &e.ProjectID, &e.IssueID, &e.UserID,
		&e.StartedAt, &e.EndedAt, &e.DurationSeconds, &e.Source, &e.Note, &e.IsBillable,
		&e.CreatedAt, &e.UpdatedAt, &e.CreatedBy, &e.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Find returns entries matching the filter, newest-created first.
func (s *Postgres) Find(ctx context.Context, filter TimeEntryFilter) ([]*models.TimeEntry, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := []any{}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.WorkspaceSlug != "" {
		add("workspace_slug = $%d", filter.WorkspaceSlug)
	}
	if filter.ProjectID != "" {
		add("project_id = $%d", filter.ProjectID)
	}
	if filter.IssueID != "" {
		add("issue_id = $%d", filter.IssueID)
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.CompletedOnly {
		conditions = append(conditions, "ended_at IS NOT NULL")
	}
	// Date boundaries compare calendar dates in UTC, not the session
	// timezone, to match the in-memory store.
	if filter.From != nil {
		add("(created_at AT TIME ZONE 'UTC')::date >= ($%d AT TIME ZONE 'UTC')::date", (*filter.From).UTC())
	}
	if filter.To != nil {
		add("(created_at AT TIME ZONE 'UTC')::date <= ($%d AT TIME ZONE 'UTC')::date", (*filter.To).UTC())
	}

	query := fmt.Sprintf(
		"SELECT %s FROM time_entries WHERE %s ORDER BY created_at DESC",
		timeEntryColumns, strings.Join(conditions, " AND "),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.TimeEntry
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read time entries: %w", err)
	}
	return entries, nil
}

// Get returns a single live entry by id.
func (s *Postgres) Get(ctx context.Context, id string) (*models.TimeEntry, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM time_entries WHERE id = $1 AND deleted_at IS NULL", timeEntryColumns),
		id,
	)
	entry, err := scanTimeEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get time entry: %w", err)
	}
	return entry, nil
}

// Create inserts a new entry.
func (s *Postgres) Create(ctx context.Context, entry *models.TimeEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO time_entries
			(id, workspace_slug, project_id, issue_id, user_id,
			 started_at, ended_at, duration_seconds, source, note, is_billable,
			 created_at, updated_at, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		entry.ID, entry.WorkspaceSlug, entry.ProjectID, entry.IssueID, entry.UserID,
		entry.StartedAt, entry.EndedAt, entry.DurationSeconds, entry.Source, entry.Note, entry.IsBillable,
		entry.CreatedAt, entry.UpdatedAt, entry.CreatedBy, entry.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create time entry: %w", err)
	}
	return nil
}

// Update writes the mutable fields of an existing entry.
func (s *Postgres) Update(ctx context.Context, entry *models.TimeEntry) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE time_entries
		 SET started_at = $1, ended_at = $2, duration_seconds = $3,
		     note = $4, is_billable = $5, updated_at = $6, updated_by = $7
		 WHERE id = $8 AND deleted_at IS NULL`,
		entry.StartedAt, entry.EndedAt, entry.DurationSeconds,
		entry.Note, entry.IsBillable, entry.UpdatedAt, entry.UpdatedBy,
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update time entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete tombstones an entry.
func (s *Postgres) SoftDelete(ctx context.Context, id, actorID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE time_entries
		 SET deleted_at = NOW(), updated_at = NOW(), updated_by = $1
		 WHERE id = $2 AND deleted_at IS NULL`,
		actorID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveTimer returns the user's running timer on the issue, or
// ErrNotFound.
func (s *Postgres) ActiveTimer(ctx context.Context, userID, issueID string) (*models.TimeEntry, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM time_entries
		 WHERE user_id = $1 AND issue_id = $2 AND source = 'timer'
		   AND started_at IS NOT NULL AND ended_at IS NULL AND deleted_at IS NULL
		 ORDER BY created_at DESC LIMIT 1`, timeEntryColumns),
		userID, issueID,
	)
	entry, err := scanTimeEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active timer: %w", err)
	}
	return entry, nil
}

// StartTimer stops the user's other active timers and creates the new
// one inside a single transaction. The user's active timer rows are
// locked FOR UPDATE so concurrent starts for the same user serialize.
func (s *Postgres) StartTimer(ctx context.Context, entry *models.TimeEntry, now time.Time) ([]*models.TimeEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM time_entries
		 WHERE user_id = $1 AND source = 'timer'
		   AND started_at IS NOT NULL AND ended_at IS NULL AND deleted_at IS NULL
		 FOR UPDATE`, timeEntryColumns),
		entry.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to lock active timers: %w", err)
	}

	var active []*models.TimeEntry
	for rows.Next() {
		timer, err := scanTimeEntry(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan active timer: %w", err)
		}
		active = append(active, timer)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read active timers: %w", err)
	}

	var stopped []*models.TimeEntry
	for _, timer := range active {
		if timer.IssueID == entry.IssueID {
			return nil, ErrDuplicateTimer
		}
		timer.EndedAt = &now
		if timer.StartedAt != nil {
			timer.DurationSeconds = timeutil.ElapsedSeconds(*timer.StartedAt, now)
		}
		timer.UpdatedAt = now
		timer.UpdatedBy = entry.UserID
		_, err := tx.Exec(ctx,
			`UPDATE time_entries
			 SET ended_at = $1, duration_seconds = $2, updated_at = $3, updated_by = $4
			 WHERE id = $5`,
			timer.EndedAt, timer.DurationSeconds, timer.UpdatedAt, timer.UpdatedBy, timer.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to stop timer %s: %w", timer.ID, err)
		}
		stopped = append(stopped, timer)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO time_entries
			(id, workspace_slug, project_id, issue_id, user_id,
			 started_at, ended_at, duration_seconds, source, note, is_billable,
			 created_at, updated_at, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		entry.ID, entry.WorkspaceSlug, entry.ProjectID, entry.IssueID, entry.UserID,
		entry.StartedAt, entry.EndedAt, entry.DurationSeconds, entry.Source, entry.Note, entry.IsBillable,
		entry.CreatedAt, entry.UpdatedAt, entry.CreatedBy, entry.UpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create timer entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit timer start: %w", err)
	}
	return stopped, nil
}

// ProjectByID returns a project.
func (s *Postgres) ProjectByID(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	err := s.pool.QueryRow(ctx,
		`SELECT id, workspace_slug, identifier, name, is_time_tracking_enabled, created_at
		 FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.WorkspaceSlug, &p.Identifier, &p.Name, &p.IsTimeTrackingEnabled, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// IssueByID returns an issue.
func (s *Postgres) IssueByID(ctx context.Context, id string) (*models.Issue, error) {
	var i models.Issue
	err := s.pool.QueryRow(ctx,
		`SELECT id, workspace_slug, project_id, name, sequence_id, estimated_time_minutes, created_at
		 FROM issues WHERE id = $1`,
		id,
	).Scan(&i.ID, &i.WorkspaceSlug, &i.ProjectID, &i.Name, &i.SequenceID, &i.EstimatedTimeMinutes, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return &i, nil
}

// UserByID returns a user.
func (s *Postgres) UserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		"SELECT id, email, display_name FROM users WHERE id = $1",
		id,
	).Scan(&u.ID, &u.Email, &u.DisplayName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// IsProjectAdmin reports whether the user holds an active admin
// membership on the project.
func (s *Postgres) IsProjectAdmin(ctx context.Context, projectID, userID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM project_members
			WHERE project_id = $1 AND user_id = $2 AND role = 'admin' AND is_active
		 )`,
		projectID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check project admin: %w", err)
	}
	return exists, nil
}

// ModuleForIssue returns the earliest module link for the issue, or nil
// when it belongs to none.
func (s *Postgres) ModuleForIssue(ctx context.Context, issueID string) (*models.Module, error) {
	var m models.Module
	err := s.pool.QueryRow(ctx,
		`SELECT m.id, m.name FROM module_issues mi
		 JOIN modules m ON m.id = mi.module_id
		 WHERE mi.issue_id = $1 ORDER BY mi.created_at ASC LIMIT 1`,
		issueID,
	).Scan(&m.ID, &m.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get module for issue: %w", err)
	}
	return &m, nil
}
