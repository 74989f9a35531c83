package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklite/tracklite/internal/apperrors"
	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/store"
	"github.com/tracklite/tracklite/internal/validation"
)

func ptrInt64(v int64) *int64                            { return &v }
func ptrTime(t time.Time) *time.Time                     { return &t }
func ptrString(s string) *string                         { return &s }
func ptrSource(s models.EntrySource) *models.EntrySource { return &s }

func TestTimeEntryService_Create(t *testing.T) {
	t.Run("Manual entry with duration succeeds", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)

		view, err := svc.Create(context.Background(), testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(3600), Note: ptrString("code review")})

		require.NoError(t, err)
		assert.Equal(t, models.SourceManual, view.Source)
		assert.Equal(t, int64(3600), view.DurationSeconds)
		assert.InDelta(t, 1.0, view.DurationHours, 1e-9)
		assert.InDelta(t, 60.0, view.DurationMinutes, 1e-9)
		assert.Equal(t, "code review", view.Note)
		assert.False(t, view.Active)
		assert.Equal(t, testUserID, view.CreatedBy)
	})

	t.Run("Manual entry without duration is rejected", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)

		_, err := svc.Create(context.Background(), testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{})

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("Strict timer entry without started_at is rejected", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)

		_, err := svc.Create(context.Background(), testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{Source: ptrSource(models.SourceTimer)})

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("Quick timer entry without started_at defaults it", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)

		view, err := svc.QuickCreate(context.Background(), testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{Source: ptrSource(models.SourceTimer)})

		require.NoError(t, err)
		require.NotNil(t, view.StartedAt)
		assert.True(t, view.Active)
	})

	t.Run("Quick-created running timer stops the user's other active timer", func(t *testing.T) {
		st := newTestStore()
		timers := NewTimerService(st)
		svc := NewTimeEntryService(st)
		ctx := context.Background()

		running, err := timers.Start(ctx, testActor(), testWorkspace, testProjectID, testIssueID, TimerOptions{})
		require.NoError(t, err)

		view, err := svc.QuickCreate(ctx, testActor(), testWorkspace, testProjectID, testIssue2ID,
			&validation.Payload{Source: ptrSource(models.SourceTimer)})

		require.NoError(t, err)
		assert.True(t, view.Active)

		previous, err := st.Get(ctx, running.ID)
		require.NoError(t, err)
		require.NotNil(t, previous.EndedAt)

		entries, err := st.Find(ctx, store.TimeEntryFilter{WorkspaceSlug: testWorkspace, UserID: testUserID})
		require.NoError(t, err)
		active := 0
		for _, e := range entries {
			if e.IsActive() {
				active++
			}
		}
		assert.Equal(t, 1, active)
	})

	t.Run("Creating a running timer on the same issue conflicts", func(t *testing.T) {
		st := newTestStore()
		timers := NewTimerService(st)
		svc := NewTimeEntryService(st)
		ctx := context.Background()

		_, err := timers.Start(ctx, testActor(), testWorkspace, testProjectID, testIssueID, TimerOptions{})
		require.NoError(t, err)

		_, err = svc.Create(ctx, testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{Source: ptrSource(models.SourceTimer), StartedAt: ptrTime(time.Now().UTC())})

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	})

	t.Run("Completed timer entry leaves the running timer alone", func(t *testing.T) {
		st := newTestStore()
		timers := NewTimerService(st)
		svc := NewTimeEntryService(st)
		ctx := context.Background()

		running, err := timers.Start(ctx, testActor(), testWorkspace, testProjectID, testIssueID, TimerOptions{})
		require.NoError(t, err)

		start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		view, err := svc.Create(ctx, testActor(), testWorkspace, testProjectID, testIssue2ID,
			&validation.Payload{
				Source:    ptrSource(models.SourceTimer),
				StartedAt: ptrTime(start),
				EndedAt:   ptrTime(start.Add(30 * time.Minute)),
			})

		require.NoError(t, err)
		assert.False(t, view.Active)
		assert.Equal(t, int64(1800), view.DurationSeconds)

		previous, err := st.Get(ctx, running.ID)
		require.NoError(t, err)
		assert.Nil(t, previous.EndedAt)
	})

	t.Run("Scope comes from the issue, not the request", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)

		view, err := svc.Create(context.Background(), testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(60)})

		require.NoError(t, err)
		assert.Equal(t, testWorkspace, view.WorkspaceSlug)
		assert.Equal(t, testProjectID, view.ProjectID)
		assert.Equal(t, testIssueID, view.IssueID)
	})

	t.Run("Create fails when time tracking is disabled", func(t *testing.T) {
		st := newTestStore()
		disableTracking(st)
		svc := NewTimeEntryService(st)

		_, err := svc.Create(context.Background(), testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(60)})

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindFeatureDisabled))
	})

	t.Run("Create fails for an issue outside the project", func(t *testing.T) {
		st := newTestStore()
		st.Issues["foreign"] = &models.Issue{
			ID: "foreign", WorkspaceSlug: testWorkspace, ProjectID: "other-project", Name: "Other",
		}
		svc := NewTimeEntryService(st)

		_, err := svc.Create(context.Background(), testActor(), testWorkspace, testProjectID, "foreign",
			&validation.Payload{DurationSeconds: ptrInt64(60)})

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}

func TestTimeEntryService_List(t *testing.T) {
	t.Run("List returns entries newest first", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)
		ctx := context.Background()

		first, err := svc.Create(ctx, testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(600)})
		require.NoError(t, err)
		second, err := svc.Create(ctx, testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(1200)})
		require.NoError(t, err)

		views, err := svc.List(ctx, testWorkspace, testProjectID, testIssueID, "")

		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, second.ID, views[0].ID)
		assert.Equal(t, first.ID, views[1].ID)
	})

	t.Run("List filters by user", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)
		ctx := context.Background()

		_, err := svc.Create(ctx, testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(600)})
		require.NoError(t, err)
		_, err = svc.Create(ctx, testActor2(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(900)})
		require.NoError(t, err)

		views, err := svc.List(ctx, testWorkspace, testProjectID, testIssueID, testUser2ID)

		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, testUser2ID, views[0].UserID)
	})
}

func TestTimeEntryService_Update(t *testing.T) {
	t.Run("Owner can update, and duration is re-derived", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)
		ctx := context.Background()

		start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		created, err := svc.Create(ctx, testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(60), StartedAt: ptrTime(start)})
		require.NoError(t, err)

		view, err := svc.Update(ctx, testActor(), testWorkspace, testProjectID, created.ID,
			&validation.Payload{EndedAt: ptrTime(start.Add(90 * time.Minute)), DurationSeconds: ptrInt64(0)})

		require.NoError(t, err)
		assert.Equal(t, int64(5400), view.DurationSeconds)
		assert.InDelta(t, 1.5, view.DurationHours, 1e-9)
	})

	t.Run("Project admin can update another user's entry", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)
		ctx := context.Background()

		created, err := svc.Create(ctx, testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(60)})
		require.NoError(t, err)

		view, err := svc.Update(ctx, testAdmin(), testWorkspace, testProjectID, created.ID,
			&validation.Payload{Note: ptrString("adjusted")})

		require.NoError(t, err)
		assert.Equal(t, "adjusted", view.Note)
		assert.Equal(t, testAdminID, view.UpdatedBy)
	})

	t.Run("Non-owner without admin is forbidden", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)
		ctx := context.Background()

		created, err := svc.Create(ctx, testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(60)})
		require.NoError(t, err)

		_, err = svc.Update(ctx, testActor2(), testWorkspace, testProjectID, created.ID,
			&validation.Payload{Note: ptrString("sneaky")})

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})

	t.Run("Entry outside the requested scope is not found", func(t *testing.T) {
		st := newTestStore()
		st.Projects["proj-2"] = &models.Project{
			ID: "proj-2", WorkspaceSlug: testWorkspace, Identifier: "OTHER",
			Name: "Other", IsTimeTrackingEnabled: true,
		}
		svc := NewTimeEntryService(st)
		ctx := context.Background()

		created, err := svc.Create(ctx, testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(60)})
		require.NoError(t, err)

		_, err = svc.Update(ctx, testActor(), testWorkspace, "proj-2", created.ID,
			&validation.Payload{Note: ptrString("x")})

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}

func TestTimeEntryService_Delete(t *testing.T) {
	t.Run("Owner delete removes the entry from reads", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)
		ctx := context.Background()

		created, err := svc.Create(ctx, testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(60)})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, testActor(), testWorkspace, testProjectID, created.ID))

		views, err := svc.List(ctx, testWorkspace, testProjectID, testIssueID, "")
		require.NoError(t, err)
		assert.Empty(t, views)
	})

	t.Run("Non-owner delete is forbidden", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)
		ctx := context.Background()

		created, err := svc.Create(ctx, testActor(), testWorkspace, testProjectID, testIssueID,
			&validation.Payload{DurationSeconds: ptrInt64(60)})
		require.NoError(t, err)

		err = svc.Delete(ctx, testActor2(), testWorkspace, testProjectID, created.ID)

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
	})

	t.Run("Deleting an unknown entry is not found", func(t *testing.T) {
		st := newTestStore()
		svc := NewTimeEntryService(st)

		err := svc.Delete(context.Background(), testActor(), testWorkspace, testProjectID, "missing")

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}
