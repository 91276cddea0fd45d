// file: internal/library/store.go
// version: 1.1.0
// guid: 8e0a2c4f-6b8d-4e0a-8c4f-6b8d0e2a4c5f

package library

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/jdfalk/bookshelf/internal/metadata"
	"github.com/jdfalk/bookshelf/internal/metrics"
	"github.com/jdfalk/bookshelf/internal/models"
)

// Store is the book collection: unique by ISBN, listed in insertion order,
// and saved in full after every mutation.
//
// Store does no locking. Callers that share a Store between goroutines must
// serialize access themselves.
type Store struct {
	storage Storage
	lookup  metadata.Lookup

	books map[string]models.Book
	order []string
}

// NewStore creates an empty Store. lookup may be nil, in which case adds
// without both title and author fail with ErrLookupUnavailable.
func NewStore(storage Storage, lookup metadata.Lookup) *Store {
	return &Store{
		storage: storage,
		lookup:  lookup,
		books:   make(map[string]models.Book),
	}
}

// Open creates a Store and loads it from storage.
func Open(storage Storage, lookup metadata.Lookup) (*Store, error) {
	s := NewStore(storage, lookup)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the collection with the stored one. On error the current
// collection is kept.
func (s *Store) Load() (err error) {
	start := time.Now()
	defer func() { s.observe("load", start, err) }()

	books, err := s.storage.Load()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.replace(books)
	log.Printf("[INFO] Library: loaded %d books", len(s.order))
	return nil
}

// Reload re-reads storage and reports whether the collection changed.
func (s *Store) Reload() (changed bool, err error) {
	start := time.Now()
	defer func() { s.observe("reload", start, err) }()

	books, err := s.storage.Load()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if slices.Equal(books, s.snapshot()) {
		return false, nil
	}
	s.replace(books)
	log.Printf("[INFO] Library: reloaded %d books from storage", len(s.order))
	return true, nil
}

// AddBook adds a book. With both title and author it is added as given;
// otherwise title and author come from the metadata lookup, whose errors are
// returned unchanged.
func (s *Store) AddBook(ctx context.Context, isbn, title, author string) (book models.Book, err error) {
	start := time.Now()
	defer func() { s.observe("add", start, err) }()

	isbn = models.NormalizeISBN(isbn)
	if isbn == "" {
		return models.Book{}, fmt.Errorf("%w: %w", ErrInvalidBook, models.ErrEmptyISBN)
	}
	if _, exists := s.books[isbn]; exists {
		return models.Book{}, fmt.Errorf("%w: %s", ErrDuplicateISBN, isbn)
	}

	if title != "" && author != "" {
		book = models.Book{ISBN: isbn, Title: title, Author: author}
	} else {
		if s.lookup == nil {
			return models.Book{}, fmt.Errorf("%w: title and author are required", ErrLookupUnavailable)
		}
		meta, err := s.lookup.Lookup(ctx, isbn)
		if err != nil {
			return models.Book{}, err
		}
		if meta == nil || strings.TrimSpace(meta.Title) == "" || strings.TrimSpace(meta.Author) == "" {
			return models.Book{}, fmt.Errorf("%w: lookup for %s returned no title or author", metadata.ErrMalformedResponse, isbn)
		}
		book = models.Book{ISBN: isbn, Title: strings.TrimSpace(meta.Title), Author: strings.TrimSpace(meta.Author)}
	}

	s.books[isbn] = book
	s.order = append(s.order, isbn)
	if err := s.persist(); err != nil {
		delete(s.books, isbn)
		s.order = s.order[:len(s.order)-1]
		return models.Book{}, err
	}

	log.Printf("[INFO] Library: added %s", book)
	return book, nil
}

// RemoveBook removes and returns the book with isbn.
func (s *Store) RemoveBook(isbn string) (book models.Book, err error) {
	start := time.Now()
	defer func() { s.observe("remove", start, err) }()

	isbn = models.NormalizeISBN(isbn)
	book, ok := s.books[isbn]
	if !ok {
		return models.Book{}, fmt.Errorf("%w: %s", ErrNotFound, isbn)
	}

	idx := slices.Index(s.order, isbn)
	prevOrder := slices.Clone(s.order)
	delete(s.books, isbn)
	s.order = slices.Delete(s.order, idx, idx+1)
	if err := s.persist(); err != nil {
		s.books[isbn] = book
		s.order = prevOrder
		return models.Book{}, err
	}

	log.Printf("[INFO] Library: removed %s", book)
	return book, nil
}

// GetBook returns the book with isbn.
func (s *Store) GetBook(isbn string) (models.Book, error) {
	isbn = models.NormalizeISBN(isbn)
	book, ok := s.books[isbn]
	if !ok {
		return models.Book{}, fmt.Errorf("%w: %s", ErrNotFound, isbn)
	}
	return book, nil
}

// ListBooks returns a copy of all books in insertion order.
func (s *Store) ListBooks() []models.Book {
	return s.snapshot()
}

// Len returns the number of books.
func (s *Store) Len() int {
	return len(s.order)
}

func (s *Store) snapshot() []models.Book {
	books := make([]models.Book, 0, len(s.order))
	for _, isbn := range s.order {
		books = append(books, s.books[isbn])
	}
	return books
}

func (s *Store) replace(books []models.Book) {
	s.books = make(map[string]models.Book, len(books))
	s.order = make([]string, 0, len(books))
	for _, b := range books {
		s.books[b.ISBN] = b
		s.order = append(s.order, b.ISBN)
	}
}

func (s *Store) persist() error {
	if err := s.storage.Save(s.snapshot()); err != nil {
		log.Printf("[ERROR] Library: save failed: %v", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *Store) observe(operation string, start time.Time, err error) {
	metrics.ObserveLibraryOperation(operation, outcome(err), time.Since(start))
	metrics.SetBooks(len(s.order))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDuplicateISBN):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidBook):
		return "invalid"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	case metadata.IsLookupError(err), errors.Is(err, ErrLookupUnavailable):
		return "lookup_error"
	default:
		return "error"
	}
}
