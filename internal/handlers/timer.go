package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tracklite/tracklite/internal/middleware"
	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/services"
)

// TimerHandler handles the timer start/stop/active endpoints.
type TimerHandler struct {
	timer *services.TimerService
}

// NewTimerHandler creates a new TimerHandler.
func NewTimerHandler(timer *services.TimerService) *TimerHandler {
	return &TimerHandler{timer: timer}
}

// Start begins a timer for the actor on the issue, preempting any
// timer running on another issue.
func (h *TimerHandler) Start(c *gin.Context) {
	actor, ok := middleware.RequireRole(c, models.RoleAdmin, models.RoleMember)
	if !ok {
		return
	}

	// Body is optional: note and billable flag only.
	var opts services.TimerOptions
	if err := c.ShouldBindJSON(&opts); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.timer.Start(c.Request.Context(), actor,
		c.Param("slug"), c.Param("projectID"), c.Param("issueID"), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Stop ends the actor's active timer on the issue.
func (h *TimerHandler) Stop(c *gin.Context) {
	actor, ok := middleware.RequireRole(c, models.RoleAdmin, models.RoleMember)
	if !ok {
		return
	}

	view, err := h.timer.Stop(c.Request.Context(), actor,
		c.Param("slug"), c.Param("projectID"), c.Param("issueID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Active returns the actor's running timer on the issue, or a null
// body when idle.
func (h *TimerHandler) Active(c *gin.Context) {
	actor, ok := middleware.RequireRole(c, models.RoleAdmin, models.RoleMember, models.RoleGuest)
	if !ok {
		return
	}

	view, err := h.timer.Active(c.Request.Context(), actor,
		c.Param("slug"), c.Param("projectID"), c.Param("issueID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_timer": view})
}
