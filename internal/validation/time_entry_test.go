package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklite/tracklite/internal/apperrors"
	"github.com/tracklite/tracklite/internal/models"
)

func ptrSource(s models.EntrySource) *models.EntrySource { return &s }
func ptrInt64(v int64) *int64                            { return &v }
func ptrTime(t time.Time) *time.Time                     { return &t }
func ptrString(s string) *string                         { return &s }
func ptrBool(b bool) *bool                               { return &b }

func TestNormalizeCreate(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	start := now.Add(-90 * time.Minute)
	end := now

	tests := []struct {
		name        string
		payload     Payload
		quick       bool
		expectError string
	}{
		{
			name:    "Manual entry with duration",
			payload: Payload{DurationSeconds: ptrInt64(1800)},
		},
		{
			name:        "Manual entry without duration",
			payload:     Payload{Source: ptrSource(models.SourceManual)},
			expectError: "duration_seconds is required for manual entries",
		},
		{
			name:        "Manual entry with zero duration",
			payload:     Payload{DurationSeconds: ptrInt64(0)},
			expectError: "duration_seconds is required for manual entries",
		},
		{
			name:        "Negative duration",
			payload:     Payload{DurationSeconds: ptrInt64(-60)},
			expectError: "duration_seconds must not be negative",
		},
		{
			name:        "Unknown source",
			payload:     Payload{Source: ptrSource("import")},
			expectError: "source must be one of: manual, timer",
		},
		{
			name:        "Strict timer without started_at",
			payload:     Payload{Source: ptrSource(models.SourceTimer)},
			expectError: "started_at is required for timer entries",
		},
		{
			name:    "Quick timer without started_at",
			payload: Payload{Source: ptrSource(models.SourceTimer)},
			quick:   true,
		},
		{
			name: "Timer with inverted range",
			payload: Payload{
				Source:    ptrSource(models.SourceTimer),
				StartedAt: ptrTime(end),
				EndedAt:   ptrTime(start),
			},
			expectError: "started_at cannot be after ended_at",
		},
		{
			name: "Manual entry with inverted range",
			payload: Payload{
				DurationSeconds: ptrInt64(60),
				StartedAt:       ptrTime(end),
				EndedAt:         ptrTime(start),
			},
			expectError: "started_at cannot be after ended_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.NormalizeCreate(now, tt.quick)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
				assert.Contains(t, err.Error(), tt.expectError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeCreate_DefaultsSourceToManual(t *testing.T) {
	payload := Payload{DurationSeconds: ptrInt64(600)}

	err := payload.NormalizeCreate(time.Now().UTC(), false)

	require.NoError(t, err)
	require.NotNil(t, payload.Source)
	assert.Equal(t, models.SourceManual, *payload.Source)
}

func TestNormalizeCreate_QuickTimerDefaultsStartedAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	payload := Payload{Source: ptrSource(models.SourceTimer)}

	err := payload.NormalizeCreate(now, true)

	require.NoError(t, err)
	require.NotNil(t, payload.StartedAt)
	assert.True(t, now.Equal(*payload.StartedAt))
}

func TestNormalizeCreate_DerivesDurationFromRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	start := now.Add(-90 * time.Minute)
	payload := Payload{
		Source:    ptrSource(models.SourceTimer),
		StartedAt: ptrTime(start),
		EndedAt:   ptrTime(now),
	}

	err := payload.NormalizeCreate(now, false)

	require.NoError(t, err)
	require.NotNil(t, payload.DurationSeconds)
	assert.Equal(t, int64(5400), *payload.DurationSeconds)
}

func TestNormalizeCreate_ExplicitDurationWinsOverRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	start := now.Add(-90 * time.Minute)
	payload := Payload{
		DurationSeconds: ptrInt64(1234),
		StartedAt:       ptrTime(start),
		EndedAt:         ptrTime(now),
	}

	err := payload.NormalizeCreate(now, false)

	require.NoError(t, err)
	assert.Equal(t, int64(1234), *payload.DurationSeconds)
}

func TestApplyUpdate(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	t.Run("Supplied fields overwrite, absent fields survive", func(t *testing.T) {
		entry := &models.TimeEntry{
			DurationSeconds: 600,
			Note:            "original",
			IsBillable:      true,
		}
		payload := &Payload{Note: ptrString("edited")}

		err := ApplyUpdate(entry, payload)

		require.NoError(t, err)
		assert.Equal(t, "edited", entry.Note)
		assert.Equal(t, int64(600), entry.DurationSeconds)
		assert.True(t, entry.IsBillable)
	})

	t.Run("Merged range re-derives duration", func(t *testing.T) {
		entry := &models.TimeEntry{StartedAt: ptrTime(start), DurationSeconds: 10}
		payload := &Payload{EndedAt: ptrTime(end)}

		err := ApplyUpdate(entry, payload)

		require.NoError(t, err)
		assert.Equal(t, int64(3600), entry.DurationSeconds)
	})

	t.Run("Explicit non-zero duration wins over merged range", func(t *testing.T) {
		entry := &models.TimeEntry{StartedAt: ptrTime(start)}
		payload := &Payload{EndedAt: ptrTime(end), DurationSeconds: ptrInt64(1800)}

		err := ApplyUpdate(entry, payload)

		require.NoError(t, err)
		assert.Equal(t, int64(1800), entry.DurationSeconds)
	})

	t.Run("Merged inverted range is rejected", func(t *testing.T) {
		entry := &models.TimeEntry{StartedAt: ptrTime(end)}
		payload := &Payload{EndedAt: ptrTime(start)}

		err := ApplyUpdate(entry, payload)

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("Negative duration is rejected", func(t *testing.T) {
		entry := &models.TimeEntry{}
		payload := &Payload{DurationSeconds: ptrInt64(-1)}

		err := ApplyUpdate(entry, payload)

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("Billable flag can be cleared", func(t *testing.T) {
		entry := &models.TimeEntry{IsBillable: true}
		payload := &Payload{IsBillable: ptrBool(false)}

		err := ApplyUpdate(entry, payload)

		require.NoError(t, err)
		assert.False(t, entry.IsBillable)
	})
}
