// Package handlers maps the HTTP surface onto the services. Handlers
// bind and authorize; all domain decisions live in internal/services.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tracklite/tracklite/internal/apperrors"
	"github.com/tracklite/tracklite/internal/logger"
)

// respondError writes the taxonomy error for err. Unknown errors are
// logged and surface as a bare 500.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	if appErr.Kind == apperrors.KindInternal {
		logger.Error("request failed", "error", appErr.Error(), "method", c.Request.Method, "route", c.FullPath())
	}
	c.JSON(appErr.Code, gin.H{"kind": appErr.Kind, "error": appErr.Message})
}
