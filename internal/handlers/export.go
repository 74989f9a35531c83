package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tracklite/tracklite/internal/logger"
	"github.com/tracklite/tracklite/internal/middleware"
	"github.com/tracklite/tracklite/internal/models"
	"github.com/tracklite/tracklite/internal/services"
)

// ExportHandler streams completed entries as a CSV download.
type ExportHandler struct {
	export *services.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(export *services.ExportService) *ExportHandler {
	return &ExportHandler{export: export}
}

// Download writes the CSV attachment: fixed 12-column header, one row
// per completed entry, newest-created first.
func (h *ExportHandler) Download(c *gin.Context) {
	if _, ok := middleware.RequireRole(c, models.RoleAdmin, models.RoleMember); !ok {
		return
	}

	slug := c.Param("slug")
	rows, err := h.export.Rows(c.Request.Context(), services.ExportParams{
		Workspace: slug,
		FromDate:  c.Query("from"),
		ToDate:    c.Query("to"),
		ProjectID: c.Query("project_id"),
		UserID:    c.Query("user_id"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	filename := services.ExportFilename(slug, time.Now())
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(services.ExportHeader); err != nil {
		logger.Error("csv export aborted", "error", err.Error())
		return
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			logger.Error("csv export aborted", "error", err.Error())
			return
		}
	}
	w.Flush()
}
