package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tracklite/tracklite/internal/middleware"
	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/services"
)

// ReportHandler handles the workspace report and per-issue summary
// endpoints.
type ReportHandler struct {
	reporting *services.ReportingService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reporting *services.ReportingService) *ReportHandler {
	return &ReportHandler{reporting: reporting}
}

// Report aggregates completed entries by ?group_by= over an optional
// date range and project/user filter.
func (h *ReportHandler) Report(c *gin.Context) {
	if _, ok := middleware.RequireRole(c, models.RoleAdmin, models.RoleMember, models.RoleGuest); !ok {
		return
	}

	groupBy := c.Query("group_by")
	if groupBy == "" {
		groupBy = services.GroupByUser
	}

	report, err := h.reporting.BuildReport(c.Request.Context(), services.ReportParams{
		Workspace: c.Param("slug"),
		GroupBy:   groupBy,
		FromDate:  c.Query("from"),
		ToDate:    c.Query("to"),
		ProjectID: c.Query("project_id"),
		UserID:    c.Query("user_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Summary returns total and per-user completed time for an issue,
// alongside its estimate.
func (h *ReportHandler) Summary(c *gin.Context) {
	if _, ok := middleware.RequireRole(c, models.RoleAdmin, models.RoleMember, models.RoleGuest); !ok {
		return
	}

	summary, err := h.reporting.IssueSummary(c.Request.Context(),
		c.Param("slug"), c.Param("projectID"), c.Param("issueID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
