package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/chachabrian/tourbook-backend/internal/bookings"
	"github.com/chachabrian/tourbook-backend/internal/database"
	"github.com/chachabrian/tourbook-backend/internal/dispatch"
	"github.com/chachabrian/tourbook-backend/internal/middleware"
	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
	"github.com/gin-gonic/gin"
)

// errorStatus classifies an error into an HTTP status and error code.
func errorStatus(err error) (int, string) {
	var persistence *bookings.PersistenceFailure
	switch {
	case bookings.IsLoadError(err):
		return http.StatusServiceUnavailable, "load_failed"
	case errors.Is(err, bookings.ErrTransitionNotFound), errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &persistence):
		return http.StatusBadGateway, "persistence_failed"
	case errors.Is(err, workflow.ErrIllegalTransition),
		errors.Is(err, bookings.ErrTransitionPending),
		errors.Is(err, dispatch.ErrStaleAction),
		errors.Is(err, dispatch.ErrNoOpenAction):
		return http.StatusConflict, "conflict"
	case models.IsValidation(err):
		return http.StatusBadRequest, "validation_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] request_id=%s %s %s failed: %v", middleware.GetRequestID(c), c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		"error":      err.Error(),
		"code":       code,
		"request_id": middleware.GetRequestID(c),
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      err.Error(),
		"code":       "validation_error",
		"request_id": middleware.GetRequestID(c),
	})
}
