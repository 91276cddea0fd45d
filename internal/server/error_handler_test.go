// file: internal/server/error_handler_test.go
// version: 2.0.0
// guid: 6e7f8a9b-0c1d-2e3f-4a5b-6c7d8e9f0a1b

package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jdfalk/bookshelf/internal/library"
	"github.com/jdfalk/bookshelf/internal/metadata"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestRespondWithNotFound(t *testing.T) {
	c, w := newTestContext()

	RespondWithNotFound(c, "book", "123")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error": "book not found: 123", "code": "NOT_FOUND", "status": 404}`, w.Body.String())
}

func TestRespondWithValidationError(t *testing.T) {
	c, w := newTestContext()

	RespondWithValidationError(c, "isbn", "required")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "validation error: isbn (required)")
}

func TestRespondWithLibraryError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{library.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{library.ErrDuplicateISBN, http.StatusConflict, "CONFLICT"},
		{library.ErrInvalidBook, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{metadata.ErrInvalidISBN, http.StatusUnprocessableEntity, "INVALID_ISBN"},
		{metadata.ErrNetwork, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{metadata.ErrMalformedResponse, http.StatusBadGateway, "UPSTREAM_MALFORMED"},
		{metadata.ErrTimeout, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"},
		{library.ErrLookupUnavailable, http.StatusServiceUnavailable, "LOOKUP_DISABLED"},
		{library.ErrPersistence, http.StatusInternalServerError, "PERSISTENCE_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c, w := newTestContext()

			status := RespondWithLibraryError(c, fmt.Errorf("%w: wrapped", tt.err), "978")

			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"`+tt.code+`"`)
		})
	}
}

func TestHandleBindError(t *testing.T) {
	c, _ := newTestContext()
	assert.Zero(t, HandleBindError(c, nil))

	c, w := newTestContext()
	assert.Equal(t, http.StatusUnprocessableEntity, HandleBindError(c, errors.New("Key: 'isbn' Error:Field validation for 'ISBN' failed on the 'required' tag")))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	c, w = newTestContext()
	assert.Equal(t, http.StatusRequestEntityTooLarge, HandleBindError(c, &http.MaxBytesError{Limit: 10}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
