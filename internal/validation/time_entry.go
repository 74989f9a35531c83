// Package validation enforces the field rules for time entry payloads
// and derives durations from start/end pairs.
package validation

import (
	"time"

	"github.com/tracklite/tracklite/internal/apperrors"
	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/timeutil"
)

// Payload carries the client-supplied fields of a create or update
// request. Pointers distinguish "absent" from zero values so updates
// only touch what the caller sent.
type Payload struct {
	Source          *models.EntrySource `json:"source"`
	StartedAt       *time.Time          `json:"started_at"`
	EndedAt         *time.Time          `json:"ended_at"`
	DurationSeconds *int64              `json:"duration_seconds"`
	Note            *string             `json:"note"`
	IsBillable      *bool               `json:"is_billable"`
}

// SourceOrDefault returns the payload source, defaulting to manual.
func (p *Payload) SourceOrDefault() models.EntrySource {
	if p.Source == nil {
		return models.SourceManual
	}
	return *p.Source
}

// NormalizeCreate validates a create payload and fills in derived
// values in place. With quick set, a timer entry without started_at
// gets it defaulted to now instead of being rejected; the strict and
// quick paths are intentionally divergent entry points.
func (p *Payload) NormalizeCreate(now time.Time, quick bool) error {
	source := p.SourceOrDefault()
	if !source.Valid() {
		return apperrors.Validationf("source must be one of: %s, %s", models.SourceManual, models.SourceTimer)
	}
	p.Source = &source

	if p.DurationSeconds != nil && *p.DurationSeconds < 0 {
		return apperrors.Validation("duration_seconds must not be negative")
	}

	switch source {
	case models.SourceManual:
		if p.DurationSeconds == nil || *p.DurationSeconds <= 0 {
			return apperrors.Validation("duration_seconds is required for manual entries")
		}
	case models.SourceTimer:
		if p.StartedAt == nil {
			if !quick {
				return apperrors.Validation("started_at is required for timer entries")
			}
			started := now
			p.StartedAt = &started
		}
	}

	return p.deriveDuration()
}

// deriveDuration applies the range/derivation rule: when both
// started_at and ended_at are present, ordering is checked and a
// missing or zero duration is computed from the pair. An explicitly
// supplied non-zero duration is left alone.
func (p *Payload) deriveDuration() error {
	if p.StartedAt == nil || p.EndedAt == nil {
		return nil
	}
	if p.StartedAt.After(*p.EndedAt) {
		return apperrors.Validation("started_at cannot be after ended_at")
	}
	if p.DurationSeconds == nil || *p.DurationSeconds == 0 {
		derived := timeutil.ElapsedSeconds(*p.StartedAt, *p.EndedAt)
		p.DurationSeconds = &derived
	}
	return nil
}

// ApplyUpdate merges the payload over an existing entry, re-running the
// range/derivation rule on the merged started/ended pair. Only the
// fields present in the payload are written; source, scope, and owner
// are immutable.
func ApplyUpdate(entry *models.TimeEntry, p *Payload) error {
	if p.DurationSeconds != nil && *p.DurationSeconds < 0 {
		return apperrors.Validation("duration_seconds must not be negative")
	}

	startedAt := entry.StartedAt
	if p.StartedAt != nil {
		startedAt = p.StartedAt
	}
	endedAt := entry.EndedAt
	if p.EndedAt != nil {
		endedAt = p.EndedAt
	}

	if startedAt != nil && endedAt != nil {
		if startedAt.After(*endedAt) {
			return apperrors.Validation("started_at cannot be after ended_at")
		}
		if p.DurationSeconds == nil || *p.DurationSeconds == 0 {
			derived := timeutil.ElapsedSeconds(*startedAt, *endedAt)
			p.DurationSeconds = &derived
		}
	}

	entry.StartedAt = startedAt
	entry.EndedAt = endedAt
	if p.DurationSeconds != nil {
		entry.DurationSeconds = *p.DurationSeconds
	}
	if p.Note != nil {
		entry.Note = *p.Note
	}
	if p.IsBillable != nil {
		entry.IsBillable = *p.IsBillable
	}
	return nil
}
