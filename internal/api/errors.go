package api

import (
	"errors"
	"net/http"

	"komal-desk/internal/remote"
	"komal-desk/internal/service"
	"komal-desk/internal/session"

	"github.com/gin-gonic/gin"
)

// writeError maps an error to a status and the message shown to the user
func writeError(c *gin.Context, err error) {
	status, message := classify(err)
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func classify(err error) (int, string) {
	var (
		verr *service.ValidationError
		merr *service.MutationError
		rerr *remote.Error
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, service.ErrFilterClosed):
		return http.StatusBadRequest, "Open the filter dialog first."
	case errors.Is(err, service.ErrInFlight):
		return http.StatusConflict, "This action is already in progress."
	case errors.Is(err, service.ErrAlreadyCompleted):
		return http.StatusConflict, "This order is already completed."
	case errors.Is(err, service.ErrPlanExecuted):
		return http.StatusConflict, "This cleanup has already run."
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "Session not found."
	case errors.Is(err, service.ErrPlanNotFound):
		return http.StatusNotFound, "Cleanup plan not found. Please start again."
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Not found."
	case errors.As(err, &merr):
		return http.StatusBadGateway, merr.UserMessage()
	case errors.As(err, &rerr):
		return http.StatusBadGateway, "Failed to load data. Please try again."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}
