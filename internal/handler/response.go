package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "goalgate/backend/internal/errors"
	"goalgate/backend/internal/observability"
)

func writeError(c *gin.Context, err error) {
	apiErr := apperrors.FromError(err)
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}
	if apiErr.Status >= http.StatusInternalServerError {
		observability.LoggerFromContext(c.Request.Context()).Error("request failed",
			"path", c.FullPath(),
			"error", err,
		)
	}

	errorBody := gin.H{
		"code":    apiErr.Code,
		"message": apiErr.Message,
	}
	if apiErr.Details != nil {
		errorBody["details"] = apiErr.Details
	}

	c.JSON(apiErr.Status, gin.H{
		"error": errorBody,
	})
}

func writeInvalidJSON(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
	})
}

// persistWarning reports whether err is only a failed write-through. The
// mutation already took effect in memory, so the response still succeeds.
func persistWarning(c *gin.Context, err error, body gin.H) bool {
	if !errors.Is(err, apperrors.ErrPersist) {
		return false
	}
	observability.LoggerFromContext(c.Request.Context()).Warn("responding with unsaved state",
		"path", c.FullPath(),
		"error", err,
	)
	body["warning"] = gin.H{"code": "persist_failed", "message": "change applied but could not be saved"}
	return true
}
