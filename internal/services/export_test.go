package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklite/tracklite/internal/models"
)

func TestExportHeader(t *testing.T) {
	expected := []string{
		"Date", "User", "User Email", "Project", "Work Item", "Work Item Key",
		"Module", "Duration (hours)", "Duration (seconds)", "Source", "Billable", "Note",
	}
	assert.Equal(t, expected, ExportHeader)
	assert.Len(t, ExportHeader, 12)
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "time_entries_acme_20260310.csv", ExportFilename("acme", now))
}

func TestExportService_Rows(t *testing.T) {
	t.Run("Rows carry the enriched cells", func(t *testing.T) {
		st := newTestStore()
		st.Modules = append(st.Modules, models.ModuleIssue{
			ID: "link-1", ModuleID: "mod-1", ModuleName: "Auth", IssueID: testIssueID,
			CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		})
		svc := NewExportService(st)
		day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		entry := seedCompleted(t, st, testUserID, testIssueID, 5400, day)
		entry.IsBillable = true
		entry.Note = "pairing session"
		entry.UpdatedAt = day
		require.NoError(t, st.Update(context.Background(), entry))

		rows, err := svc.Rows(context.Background(), ExportParams{Workspace: testWorkspace})

		require.NoError(t, err)
		require.Len(t, rows, 1)
		row := rows[0]
		require.Len(t, row, 12)
		assert.Equal(t, "2026-03-10", row[0])
		assert.Equal(t, "Alice", row[1])
		assert.Equal(t, "alice@example.com", row[2])
		assert.Equal(t, "Acme Platform", row[3])
		assert.Equal(t, "Fix login flow", row[4])
		assert.Equal(t, "ACME-42", row[5])
		assert.Equal(t, "Auth", row[6])
		assert.Equal(t, "1.50", row[7])
		assert.Equal(t, "5400", row[8])
		assert.Equal(t, "manual", row[9])
		assert.Equal(t, "Yes", row[10])
		assert.Equal(t, "pairing session", row[11])
	})

	t.Run("Row count matches completed entries, newest first", func(t *testing.T) {
		st := newTestStore()
		svc := NewExportService(st)
		day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		seedCompleted(t, st, testUserID, testIssueID, 100, day)
		seedCompleted(t, st, testUser2ID, testIssue2ID, 200, day.Add(time.Hour))
		seedRunning(t, st, testAdminID, testIssueID, day.Add(2*time.Hour))

		rows, err := svc.Rows(context.Background(), ExportParams{Workspace: testWorkspace})

		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "200", rows[0][8])
		assert.Equal(t, "100", rows[1][8])
	})

	t.Run("Non-billable entries read No", func(t *testing.T) {
		st := newTestStore()
		svc := NewExportService(st)

		seedCompleted(t, st, testUserID, testIssueID, 60, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

		rows, err := svc.Rows(context.Background(), ExportParams{Workspace: testWorkspace})

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "No", rows[0][10])
	})

	t.Run("Missing lookups degrade to empty cells", func(t *testing.T) {
		st := newTestStore()
		svc := NewExportService(st)
		day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		seedCompleted(t, st, "ghost-user", testIssueID, 60, day)

		rows, err := svc.Rows(context.Background(), ExportParams{Workspace: testWorkspace})

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "", rows[0][1])
		assert.Equal(t, "", rows[0][2])
		assert.Equal(t, "Fix login flow", rows[0][4])
	})

	t.Run("Export honors the user filter", func(t *testing.T) {
		st := newTestStore()
		svc := NewExportService(st)
		day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

		seedCompleted(t, st, testUserID, testIssueID, 100, day)
		seedCompleted(t, st, testUser2ID, testIssueID, 200, day)

		rows, err := svc.Rows(context.Background(), ExportParams{Workspace: testWorkspace, UserID: testUser2ID})

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Bob", rows[0][1])
	})
}
