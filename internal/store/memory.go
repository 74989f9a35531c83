package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/timeutil"
)

// Memory is an in-memory Store used by tests and --dev runs. A single
// mutex serializes writes, which also serializes concurrent timer
// starts the way the Postgres implementation does with row locks.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*models.TimeEntry
	seq     int64

	Projects map[string]*models.Project
	Issues   map[string]*models.Issue
	Users    map[string]*models.User
	Members  []models.ProjectMember
	Modules  []models.ModuleIssue
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{
		entries:  make(map[string]*models.TimeEntry),
		Projects: make(map[string]*models.Project),
		Issues:   make(map[string]*models.Issue),
		Users:    make(map[string]*models.User),
	}
}

func sameDateOrAfter(t, boundary time.Time) bool {
	ty, tm, td := t.UTC().Date()
	by, bm, bd := boundary.UTC().Date()
	return time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC).
		Compare(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)) >= 0
}

func matches(e *models.TimeEntry, f TimeEntryFilter) bool {
	if e.DeletedAt != nil {
		return false
	}
	if f.WorkspaceSlug != "" && e.WorkspaceSlug != f.WorkspaceSlug {
		return false
	}
	if f.ProjectID != "" && e.ProjectID != f.ProjectID {
		return false
	}
	if f.IssueID != "" && e.IssueID != f.IssueID {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.CompletedOnly && e.EndedAt == nil {
		return false
	}
	if f.From != nil && !sameDateOrAfter(e.CreatedAt, *f.From) {
		return false
	}
	if f.To != nil && !sameDateOrAfter(*f.To, e.CreatedAt) {
		return false
	}
	return true
}

// Find returns matching entries newest-created first.
func (s *Memory) Find(_ context.Context, filter TimeEntryFilter) ([]*models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.TimeEntry
	for _, e := range s.entries {
		if matches(e, filter) {
			copied := *e
			result = append(result, &copied)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Get returns a live entry by id.
func (s *Memory) Get(_ context.Context, id string) (*models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.DeletedAt != nil {
		return nil, ErrNotFound
	}
	copied := *e
	return &copied, nil
}

// Create inserts a new entry. The stored copy's creation timestamp gets
// a monotonic nudge so same-instant inserts keep a stable newest-first
// order; the caller's entry is left untouched.
func (s *Memory) Create(_ context.Context, entry *models.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createLocked(entry)
	return nil
}

func (s *Memory) createLocked(entry *models.TimeEntry) {
	s.seq++
	copied := *entry
	copied.CreatedAt = copied.CreatedAt.Add(time.Duration(s.seq) * time.Nanosecond)
	s.entries[entry.ID] = &copied
}

// Update writes the mutable fields of an existing entry.
func (s *Memory) Update(_ context.Context, entry *models.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[entry.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	existing.StartedAt = entry.StartedAt
	existing.EndedAt = entry.EndedAt
	existing.DurationSeconds = entry.DurationSeconds
	existing.Note = entry.Note
	existing.IsBillable = entry.IsBillable
	existing.UpdatedAt = entry.UpdatedAt
	existing.UpdatedBy = entry.UpdatedBy
	return nil
}

// SoftDelete tombstones an entry.
func (s *Memory) SoftDelete(_ context.Context, id, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[id]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	existing.DeletedAt = &now
	existing.UpdatedAt = now
	existing.UpdatedBy = actorID
	return nil
}

// ActiveTimer returns the user's running timer on the issue, or
// ErrNotFound.
func (s *Memory) ActiveTimer(_ context.Context, userID, issueID string) (*models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer := s.activeTimerLocked(userID, issueID); timer != nil {
		copied := *timer
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *Memory) activeTimerLocked(userID, issueID string) *models.TimeEntry {
	for _, e := range s.entries {
		if e.DeletedAt == nil && e.UserID == userID && e.IssueID == issueID && e.IsActive() {
			return e
		}
	}
	return nil
}

// StartTimer stops the user's other active timers and creates the new
// one under the store mutex.
func (s *Memory) StartTimer(_ context.Context, entry *models.TimeEntry, now time.Time) ([]*models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeTimerLocked(entry.UserID, entry.IssueID) != nil {
		return nil, ErrDuplicateTimer
	}

	var stopped []*models.TimeEntry
	for _, e := range s.entries {
		if e.DeletedAt == nil && e.UserID == entry.UserID && e.IsActive() {
			e.EndedAt = &now
			if e.StartedAt != nil {
				e.DurationSeconds = timeutil.ElapsedSeconds(*e.StartedAt, now)
			}
			e.UpdatedAt = now
			e.UpdatedBy = entry.UserID
			copied := *e
			stopped = append(stopped, &copied)
		}
	}

	s.createLocked(entry)
	return stopped, nil
}

// ProjectByID returns a project.
func (s *Memory) ProjectByID(_ context.Context, id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.Projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

// IssueByID returns an issue.
func (s *Memory) IssueByID(_ context.Context, id string) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.Issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *i
	return &copied, nil
}

// UserByID returns a user.
func (s *Memory) UserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.Users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// IsProjectAdmin reports whether the user has an active admin
// membership on the project.
func (s *Memory) IsProjectAdmin(_ context.Context, projectID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.Members {
		if m.ProjectID == projectID && m.UserID == userID && m.Role == models.RoleAdmin && m.IsActive {
			return true, nil
		}
	}
	return false, nil
}

// ModuleForIssue returns the earliest module link for the issue, or nil
// when it belongs to none.
func (s *Memory) ModuleForIssue(_ context.Context, issueID string) (*models.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *models.ModuleIssue
	for i := range s.Modules {
		link := &s.Modules[i]
		if link.IssueID != issueID {
			continue
		}
		if best == nil || link.CreatedAt.Before(best.CreatedAt) {
			best = link
		}
	}
	if best == nil {
		return nil, nil
	}
	return &models.Module{ID: best.ModuleID, Name: best.ModuleName}, nil
}
