package app_error

import (
	"errors"
	"log/slog"
	"net/http"

	"scorekeeper/hierarchy"
	"scorekeeper/scoring"
	"scorekeeper/workflow"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type statusError struct {
	error
	status int
}

func (e statusError) Unwrap() error {
	return e.error
}

func (e statusError) HTTPStatus() int {
	return e.status
}

// BadRequest marks err as a client input error.
func BadRequest(err error) error {
	return statusError{error: err, status: http.StatusBadRequest}
}

func WithHTTPStatus(c *gin.Context, err error, status int) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusOf maps domain errors to HTTP status codes.
func StatusOf(err error) int {
	var withStatus interface{ HTTPStatus() int }
	switch {
	case errors.As(err, &withStatus):
		return withStatus.HTTPStatus()
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrGuardRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, hierarchy.ErrCycle),
		errors.Is(err, hierarchy.ErrUnknownParent),
		errors.Is(err, hierarchy.ErrRootKind),
		errors.Is(err, hierarchy.ErrMultipleRoot):
		return http.StatusBadRequest
	case errors.Is(err, scoring.ErrUnsupportedAwardLevel), errors.Is(err, scoring.ErrMissingThreshold):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// Respond writes err with its mapped status. Guard rejections carry their reason code.
func Respond(c *gin.Context, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
	}
	var guardErr *workflow.GuardError
	if errors.As(err, &guardErr) {
		c.JSON(status, gin.H{"error": err.Error(), "reason": guardErr.Reason})
		return
	}
	WithHTTPStatus(c, err, status)
}
