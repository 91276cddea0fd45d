// file: internal/server/logger_test.go
// version: 2.0.0
// guid: 2e3f4a5b-6c7d-8e9f-0a1b-2c3d4e5f6a7b

package server

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestNewOperationLogger(t *testing.T) {
	logger := NewOperationLogger("createBook", "POST", "/books", "req-123")

	if logger.handler != "createBook" {
		t.Errorf("expected handler 'createBook', got %q", logger.handler)
	}
	if logger.method != "POST" {
		t.Errorf("expected method 'POST', got %q", logger.method)
	}
	if logger.requestID != "req-123" {
		t.Errorf("expected requestID 'req-123', got %q", logger.requestID)
	}
}

func TestOperationLogger_Lifecycle(t *testing.T) {
	buf := captureLog(t)

	logger := NewOperationLogger("deleteBook", "DELETE", "/books/1", "req-9")
	logger.SetResourceID("1")
	logger.LogStart()
	logger.LogSuccess(200)
	logger.LogError(404, errors.New("book not found"))

	out := buf.String()
	for _, want := range []string{
		"[START] DELETE /books/1 (resource: 1)",
		"[SUCCESS] DELETE /books/1 (200)",
		"[ERROR] DELETE /books/1 (404)",
		"book not found",
		"[request-id: req-9]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %q, got:\n%s", want, out)
		}
	}
}
