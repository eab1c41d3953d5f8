// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/letterbox/internal/errors"
)

// unavailableRetryAfter is the Retry-After hint, in seconds, sent with 503 responses.
const unavailableRetryAfter = "5"

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

type errorMapping struct {
	sentinel    error
	status      int
	code        string
	message     string
	exposeCause bool
}

// errorMappings is checked in order; the first sentinel found in the error chain wins.
var errorMappings = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found", "The requested resource was not found", false},
	{apperrors.ErrConflict, http.StatusConflict, "conflict", "A conflict occurred with existing data", false},
	{apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input", "", true},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "Authentication is required", false},
	{apperrors.ErrLocked, http.StatusLocked, "locked", "The resource is temporarily locked", false},
	{
		apperrors.ErrTooManyRequests, http.StatusTooManyRequests,
		"rate_limited", "Too many attempts, try again later", false,
	},
	{
		apperrors.ErrUnavailable, http.StatusServiceUnavailable,
		"service_unavailable", "The service is temporarily unavailable, try again later", false,
	},
	{
		apperrors.ErrForbidden, http.StatusForbidden,
		"forbidden", "You don't have permission to access this resource", false,
	},
}

var internalError = errorMapping{
	status:  http.StatusInternalServerError,
	code:    "internal_error",
	message: "An internal error occurred",
}

func mapError(err error) (int, ErrorResponse) {
	mapping := internalError
	for _, candidate := range errorMappings {
		if apperrors.Is(err, candidate.sentinel) {
			mapping = candidate
			break
		}
	}

	message := mapping.message
	if mapping.exposeCause {
		message = err.Error()
	}
	return mapping.status, ErrorResponse{Error: mapping.code, Message: message}
}

// HandleErrorGin maps domain errors to HTTP status codes and writes a JSON response.
// Only invalid input echoes the error text; every other cause is logged and hidden.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	statusCode, errorResponse := mapError(err)

	if statusCode == http.StatusServiceUnavailable {
		c.Header("Retry-After", unavailableRetryAfter)
	}

	if logger != nil {
		level := slog.LevelWarn
		if statusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		ctx := context.Background()
		if c.Request != nil {
			ctx = c.Request.Context()
		}
		logger.Log(ctx, level, "request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Error),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, errorResponse)
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed JSON or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	})
}

// HandleValidationErrorGin writes a 422 Unprocessable Entity response for validation errors.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}
