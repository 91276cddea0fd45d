// file: internal/server/error_handler.go
// version: 2.0.0
// guid: 5d6e7f8a-9b0c-1d2e-3f4a-5b6c7d8e9f0a

package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jdfalk/bookshelf/internal/library"
	"github.com/jdfalk/bookshelf/internal/metadata"
	"github.com/jdfalk/bookshelf/internal/server/middleware"
)

// ErrorResponse provides a consistent error response format
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Status int    `json:"status"`
}

// RespondWithError sends a standardized error response and logs the error
func RespondWithError(c *gin.Context, statusCode int, message string, code string) {
	logErrorWithContext(c, statusCode, message)

	c.JSON(statusCode, ErrorResponse{
		Error:  message,
		Code:   code,
		Status: statusCode,
	})
}

// RespondWithValidationError sends a 422 error for validation failures
func RespondWithValidationError(c *gin.Context, field string, reason string) {
	message := "validation error: " + field
	if reason != "" {
		message = message + " (" + reason + ")"
	}
	RespondWithError(c, http.StatusUnprocessableEntity, message, "VALIDATION_ERROR")
}

// RespondWithNotFound sends a 404 Not Found error response
func RespondWithNotFound(c *gin.Context, resourceType string, id string) {
	message := resourceType + " not found"
	if id != "" {
		message = message + ": " + id
	}
	RespondWithError(c, http.StatusNotFound, message, "NOT_FOUND")
}

// RespondWithInternalError sends a 500 Internal Server Error response
func RespondWithInternalError(c *gin.Context, message string) {
	RespondWithError(c, http.StatusInternalServerError, message, "INTERNAL_ERROR")
}

// RespondWithConflict sends a 409 Conflict error response
func RespondWithConflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, message, "CONFLICT")
}

// RespondWithList sends a list response
func RespondWithList(c *gin.Context, items any, count int) {
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": count,
	})
}

// RespondWithLibraryError maps a library or lookup error to a response and
// returns the status code sent.
func RespondWithLibraryError(c *gin.Context, err error, isbn string) int {
	var status int
	var code string
	switch {
	case errors.Is(err, library.ErrNotFound):
		RespondWithNotFound(c, "book", isbn)
		return http.StatusNotFound
	case errors.Is(err, library.ErrDuplicateISBN):
		RespondWithConflict(c, err.Error())
		return http.StatusConflict
	case errors.Is(err, library.ErrInvalidBook):
		status, code = http.StatusUnprocessableEntity, "VALIDATION_ERROR"
	case errors.Is(err, metadata.ErrInvalidISBN):
		status, code = http.StatusUnprocessableEntity, "INVALID_ISBN"
	case errors.Is(err, metadata.ErrTimeout):
		status, code = http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"
	case errors.Is(err, metadata.ErrMalformedResponse):
		status, code = http.StatusBadGateway, "UPSTREAM_MALFORMED"
	case errors.Is(err, metadata.ErrNetwork):
		status, code = http.StatusBadGateway, "UPSTREAM_ERROR"
	case errors.Is(err, library.ErrLookupUnavailable):
		status, code = http.StatusServiceUnavailable, "LOOKUP_DISABLED"
	case errors.Is(err, library.ErrPersistence):
		status, code = http.StatusInternalServerError, "PERSISTENCE_ERROR"
	default:
		RespondWithInternalError(c, err.Error())
		return http.StatusInternalServerError
	}
	RespondWithError(c, status, err.Error(), code)
	return status
}

// logErrorWithContext logs an error with request context for debugging
func logErrorWithContext(c *gin.Context, statusCode int, message string) {
	method := c.Request.Method
	path := c.Request.URL.Path
	clientIP := c.ClientIP()

	logLevel := "WARN"
	if statusCode >= 500 {
		logLevel = "ERROR"
	}

	log.Printf("[%s] %s %s %d - %s (from %s) [request-id: %s]",
		logLevel, method, path, statusCode, message, clientIP, middleware.GetRequestID(c))
}

// HandleBindError handles JSON binding errors with a consistent response.
// It returns the status code sent, or 0 when err is nil.
func HandleBindError(c *gin.Context, err error) int {
	if err == nil {
		return 0
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		RespondWithError(c, http.StatusRequestEntityTooLarge, "request body too large", "PAYLOAD_TOO_LARGE")
		return http.StatusRequestEntityTooLarge
	}
	RespondWithValidationError(c, "request body", err.Error())
	return http.StatusUnprocessableEntity
}
