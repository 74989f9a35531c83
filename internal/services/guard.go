package services

import (
	"context"
	"errors"

	"github.com/tracklite/tracklite/internal/apperrors"
	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/store"
)

// requireTimeTracking loads the project and enforces the time-tracking
// feature toggle. Runs before any other validation on every timer and
// entry CRUD path.
func requireTimeTracking(ctx context.Context, lookups store.LookupStore, projectID string) (*models.Project, error) {
	project, err := lookups.ProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("project not found")
		}
		return nil, apperrors.Internal(err)
	}
	if !project.IsTimeTrackingEnabled {
		return nil, apperrors.FeatureDisabled("time tracking is not enabled for this project")
	}
	return project, nil
}

// requireIssue loads the issue and verifies it belongs to the given
// project and workspace.
func requireIssue(ctx context.Context, lookups store.LookupStore, workspaceSlug, projectID, issueID string) (*models.Issue, error) {
	issue, err := lookups.IssueByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("issue not found")
		}
		return nil, apperrors.Internal(err)
	}
	if issue.ProjectID != projectID || issue.WorkspaceSlug != workspaceSlug {
		return nil, apperrors.NotFound("issue not found")
	}
	return issue, nil
}

// canMutate reports whether the actor may modify an entry: the owner
// always can, otherwise an active project-admin membership is required.
func canMutate(ctx context.Context, lookups store.LookupStore, entry *models.TimeEntry, actor *models.Actor) (bool, error) {
	if entry.UserID == actor.ID {
		return true, nil
	}
	isAdmin, err := lookups.IsProjectAdmin(ctx, entry.ProjectID, actor.ID)
	if err != nil {
		return false, apperrors.Internal(err)
	}
	return isAdmin, nil
}
