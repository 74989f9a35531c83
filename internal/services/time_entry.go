package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tracklite/tracklite/internal/apperrors"
	"github.com/tracklite/tracklite/internal/logger"
	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/store"
	"github.com/tracklite/tracklite/internal/validation"
)

// TimeEntryService handles listing, creation, editing, and soft
// deletion of time entries.
type TimeEntryService struct {
	store store.Store
}

// NewTimeEntryService creates a new TimeEntryService.
func NewTimeEntryService(st store.Store) *TimeEntryService {
	return &TimeEntryService{store: st}
}

// List returns the entries recorded against an issue, newest first,
// optionally narrowed to a single user.
func (s *TimeEntryService) List(ctx context.Context, workspaceSlug, projectID, issueID, userID string) ([]models.TimeEntryView, error) {
	if _, err := requireTimeTracking(ctx, s.store, projectID); err != nil {
		return nil, err
	}

	entries, err := s.store.Find(ctx, store.TimeEntryFilter{
		WorkspaceSlug: workspaceSlug,
		ProjectID:     projectID,
		IssueID:       issueID,
		UserID:        userID,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return models.Views(entries), nil
}

// Create records a new entry with the strict validation rules: manual
// entries need a positive duration, timer entries need started_at.
func (s *TimeEntryService) Create(ctx context.Context, actor *models.Actor, workspaceSlug, projectID, issueID string, payload *validation.Payload) (*models.TimeEntryView, error) {
	return s.create(ctx, actor, workspaceSlug, projectID, issueID, payload, false)
}

// QuickCreate records a new entry with the simplified rules: a timer
// entry without started_at gets it defaulted to now.
func (s *TimeEntryService) QuickCreate(ctx context.Context, actor *models.Actor, workspaceSlug, projectID, issueID string, payload *validation.Payload) (*models.TimeEntryView, error) {
	return s.create(ctx, actor, workspaceSlug, projectID, issueID, payload, true)
}

func (s *TimeEntryService) create(ctx context.Context, actor *models.Actor, workspaceSlug, projectID, issueID string, payload *validation.Payload, quick bool) (*models.TimeEntryView, error) {
	if _, err := requireTimeTracking(ctx, s.store, projectID); err != nil {
		return nil, err
	}
	issue, err := requireIssue(ctx, s.store, workspaceSlug, projectID, issueID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := payload.NormalizeCreate(now, quick); err != nil {
		return nil, err
	}

	entry := &models.TimeEntry{
		ID: uuid.New().String(),
		// Scope always comes from the issue, never from the client.
		WorkspaceSlug: issue.WorkspaceSlug,
		ProjectID:     issue.ProjectID,
		IssueID:       issue.ID,
		UserID:        actor.ID,
		StartedAt:     payload.StartedAt,
		EndedAt:       payload.EndedAt,
		Source:        payload.SourceOrDefault(),
		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedBy:     actor.ID,
		UpdatedBy:     actor.ID,
	}
	if payload.DurationSeconds != nil {
		entry.DurationSeconds = *payload.DurationSeconds
	}
	if payload.Note != nil {
		entry.Note = *payload.Note
	}
	if payload.IsBillable != nil {
		entry.IsBillable = *payload.IsBillable
	}

	// A payload that comes in as a running timer takes the serialized
	// start path, so a user never holds two active entries no matter
	// which surface created them.
	if entry.IsActive() {
		stopped, err := s.store.StartTimer(ctx, entry, now)
		if err != nil {
			if errors.Is(err, store.ErrDuplicateTimer) {
				return nil, apperrors.Conflict("you already have an active timer on this issue")
			}
			return nil, apperrors.Internal(err)
		}
		if len(stopped) > 0 {
			logger.Info("preempted active timers on create",
				"user_id", actor.ID, "issue_id", issue.ID, "stopped", len(stopped))
		}
	} else if err := s.store.Create(ctx, entry); err != nil {
		return nil, apperrors.Internal(err)
	}

	logger.Debug("time entry created",
		"entry_id", entry.ID, "issue_id", issue.ID, "user_id", actor.ID, "source", entry.Source)

	view := entry.View()
	return &view, nil
}

// Update edits an existing entry. Only the creator or a project admin
// may edit; only the supplied fields are written, and the duration is
// re-derived from the merged start/end pair unless explicitly supplied.
func (s *TimeEntryService) Update(ctx context.Context, actor *models.Actor, workspaceSlug, projectID, entryID string, payload *validation.Payload) (*models.TimeEntryView, error) {
	if _, err := requireTimeTracking(ctx, s.store, projectID); err != nil {
		return nil, err
	}

	entry, err := s.getScoped(ctx, workspaceSlug, projectID, entryID)
	if err != nil {
		return nil, err
	}

	ok, err := canMutate(ctx, s.store, entry, actor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Forbidden("you don't have permission to update this time entry")
	}

	if err := validation.ApplyUpdate(entry, payload); err != nil {
		return nil, err
	}
	entry.UpdatedAt = time.Now().UTC()
	entry.UpdatedBy = actor.ID

	if err := s.store.Update(ctx, entry); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("time entry not found")
		}
		return nil, apperrors.Internal(err)
	}

	view := entry.View()
	return &view, nil
}

// Delete soft-deletes an entry. Only the creator or a project admin may
// delete.
func (s *TimeEntryService) Delete(ctx context.Context, actor *models.Actor, workspaceSlug, projectID, entryID string) error {
	if _, err := requireTimeTracking(ctx, s.store, projectID); err != nil {
		return err
	}

	entry, err := s.getScoped(ctx, workspaceSlug, projectID, entryID)
	if err != nil {
		return err
	}

	ok, err := canMutate(ctx, s.store, entry, actor)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("you don't have permission to delete this time entry")
	}

	if err := s.store.SoftDelete(ctx, entry.ID, actor.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("time entry not found")
		}
		return apperrors.Internal(err)
	}
	return nil
}

// getScoped loads an entry and verifies it belongs to the requested
// workspace and project; out-of-scope ids read as not found.
func (s *TimeEntryService) getScoped(ctx context.Context, workspaceSlug, projectID, entryID string) (*models.TimeEntry, error) {
	entry, err := s.store.Get(ctx, entryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("time entry not found")
		}
		return nil, apperrors.Internal(err)
	}
	if entry.WorkspaceSlug != workspaceSlug || entry.ProjectID != projectID {
		return nil, apperrors.NotFound("time entry not found")
	}
	return entry, nil
}
