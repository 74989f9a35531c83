package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tracklite/tracklite/internal/middleware"
	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/services"
	"github.com/tracklite/tracklite/internal/validation"
)

// TimeEntryHandler handles the per-issue time entry CRUD endpoints.
type TimeEntryHandler struct {
	entries *services.TimeEntryService
}

// NewTimeEntryHandler creates a new TimeEntryHandler.
func NewTimeEntryHandler(entries *services.TimeEntryService) *TimeEntryHandler {
	return &TimeEntryHandler{entries: entries}
}

// List returns the entries for an issue, optionally filtered by
// ?user_id=.
func (h *TimeEntryHandler) List(c *gin.Context) {
	if _, ok := middleware.RequireRole(c, models.RoleAdmin, models.RoleMember, models.RoleGuest); !ok {
		return
	}

	views, err := h.entries.List(c.Request.Context(),
		c.Param("slug"), c.Param("projectID"), c.Param("issueID"), c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Create records a manual or timer entry with the simplified rules
// (timer entries default started_at to now).
func (h *TimeEntryHandler) Create(c *gin.Context) {
	h.create(c, false)
}

// CreateStrict records an entry with the strict rules (timer entries
// must carry started_at). Served on the public API surface.
func (h *TimeEntryHandler) CreateStrict(c *gin.Context) {
	h.create(c, true)
}

func (h *TimeEntryHandler) create(c *gin.Context, strict bool) {
	actor, ok := middleware.RequireRole(c, models.RoleAdmin, models.RoleMember)
	if !ok {
		return
	}

	var payload validation.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	create := h.entries.QuickCreate
	if strict {
		create = h.entries.Create
	}
	view, err := create(c.Request.Context(), actor,
		c.Param("slug"), c.Param("projectID"), c.Param("issueID"), &payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Update edits an entry's duration, range, note, or billable flag.
func (h *TimeEntryHandler) Update(c *gin.Context) {
	actor, ok := middleware.RequireRole(c, models.RoleAdmin, models.RoleMember)
	if !ok {
		return
	}

	var payload validation.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.entries.Update(c.Request.Context(), actor,
		c.Param("slug"), c.Param("projectID"), c.Param("entryID"), &payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Delete soft-deletes an entry.
func (h *TimeEntryHandler) Delete(c *gin.Context) {
	actor, ok := middleware.RequireRole(c, models.RoleAdmin, models.RoleMember)
	if !ok {
		return
	}

	err := h.entries.Delete(c.Request.Context(), actor,
		c.Param("slug"), c.Param("projectID"), c.Param("entryID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
