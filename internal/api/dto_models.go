package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"musa-backend-go/internal/core"
)

// ErrorResponse is the generic error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is the generic body for operations with no natural payload.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// respondError maps the core error taxonomy to HTTP statuses in one place so
// handlers never hand-pick status codes for service errors.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, core.ErrExpired):
		status = http.StatusGone
	case errors.Is(err, core.ErrEstateLocked):
		status = http.StatusLocked
	case errors.Is(err, core.ErrRateLimited):
		status = http.StatusTooManyRequests
	}

	body := ErrorResponse{Error: err.Error()}
	if status == http.StatusInternalServerError {
		// Internal detail stays in the server log; the client gets a generic line.
		c.Error(err)
		body.Error = "Internal server error"
	}
	c.JSON(status, body)
}
