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
	"github.com/tracklite/tracklite/internal/timeutil"
)

// TimerService is the state machine for running timers. A user is
// either idle or running exactly one timer; starting a timer on a new
// issue silently stops whatever was running elsewhere.
type TimerService struct {
	store store.Store
}

// NewTimerService creates a new TimerService.
func NewTimerService(st store.Store) *TimerService {
	return &TimerService{store: st}
}

// TimerOptions carries the optional fields a timer start may set.
type TimerOptions struct {
	Note       string `json:"note"`
	IsBillable bool   `json:"is_billable"`
}

// Start begins a timer for the actor on the issue. Any active timer the
// actor has on another issue is stopped first; a duplicate start on the
// same issue fails with Conflict.
func (s *TimerService) Start(ctx context.Context, actor *models.Actor, workspaceSlug, projectID, issueID string, opts TimerOptions) (*models.TimeEntryView, error) {
	if _, err := requireTimeTracking(ctx, s.store, projectID); err != nil {
		return nil, err
	}
	issue, err := requireIssue(ctx, s.store, workspaceSlug, projectID, issueID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := &models.TimeEntry{
		ID:            uuid.New().String(),
		WorkspaceSlug: issue.WorkspaceSlug,
		ProjectID:     issue.ProjectID,
		IssueID:       issue.ID,
		UserID:        actor.ID,
		StartedAt:     &now,
		Source:        models.SourceTimer,
		Note:          opts.Note,
		IsBillable:    opts.IsBillable,
		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedBy:     actor.ID,
		UpdatedBy:     actor.ID,
	}

	stopped, err := s.store.StartTimer(ctx, entry, now)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTimer) {
			return nil, apperrors.Conflict("you already have an active timer on this issue")
		}
		return nil, apperrors.Internal(err)
	}

	if len(stopped) > 0 {
		logger.Info("preempted active timers on start",
			"user_id", actor.ID, "issue_id", issue.ID, "stopped", len(stopped))
	}

	view := entry.View()
	return &view, nil
}

// Stop ends the actor's active timer on the issue, deriving its final
// duration.
func (s *TimerService) Stop(ctx context.Context, actor *models.Actor, workspaceSlug, projectID, issueID string) (*models.TimeEntryView, error) {
	if _, err := requireTimeTracking(ctx, s.store, projectID); err != nil {
		return nil, err
	}

	timer, err := s.store.ActiveTimer(ctx, actor.ID, issueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("no active timer found for this issue")
		}
		return nil, apperrors.Internal(err)
	}

	now := time.Now().UTC()
	timer.EndedAt = &now
	if timer.StartedAt != nil {
		timer.DurationSeconds = timeutil.ElapsedSeconds(*timer.StartedAt, now)
	}
	timer.UpdatedAt = now
	timer.UpdatedBy = actor.ID

	if err := s.store.Update(ctx, timer); err != nil {
		return nil, apperrors.Internal(err)
	}

	view := timer.View()
	return &view, nil
}

// Active returns the actor's running timer on the issue, or nil when
// idle. Pure read, no state change.
func (s *TimerService) Active(ctx context.Context, actor *models.Actor, workspaceSlug, projectID, issueID string) (*models.TimeEntryView, error) {
	if _, err := requireTimeTracking(ctx, s.store, projectID); err != nil {
		return nil, err
	}

	timer, err := s.store.ActiveTimer(ctx, actor.ID, issueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal(err)
	}
	view := timer.View()
	return &view, nil
}
