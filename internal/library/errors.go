// file: internal/library/errors.go
// version: 1.0.0
// guid: 4a6c8e0b-2d4f-4a6c-8e0b-2d4f6a8c0e1b

package library

import "errors"

var (
	// ErrDuplicateISBN is returned when adding an ISBN that is already in the library.
	ErrDuplicateISBN = errors.New("a book with this ISBN already exists")
	// ErrNotFound is returned when no book has the requested ISBN.
	ErrNotFound = errors.New("book not found")
	// ErrPersistence is returned when the library cannot be read from or
	// written to storage. The in-memory collection is left unchanged.
	ErrPersistence = errors.New("library persistence failed")
	// ErrInvalidBook is returned for input that cannot form a book, such as an empty ISBN.
	ErrInvalidBook = errors.New("invalid book")
	// ErrLookupUnavailable is returned when an add needs metadata but no lookup is configured.
	ErrLookupUnavailable = errors.New("metadata lookup is not available")
)
