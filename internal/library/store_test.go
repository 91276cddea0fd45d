// file: internal/library/store_test.go
// version: 1.0.0
// guid: 0a2c4e6b-8d0f-4a2c-9e6b-8d0f2a4c6e7b

package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/bookshelf/internal/metadata"
	"github.com/jdfalk/bookshelf/internal/models"
)

// fakeLookup records calls and answers from a fixed table.
type fakeLookup struct {
	results map[string]metadata.BookMetadata
	err     error
	calls   []string
}

func (f *fakeLookup) Lookup(_ context.Context, isbn string) (*metadata.BookMetadata, error) {
	f.calls = append(f.calls, isbn)
	if f.err != nil {
		return nil, f.err
	}
	meta, ok := f.results[isbn]
	if !ok {
		return nil, fmt.Errorf("%w: %s", metadata.ErrInvalidISBN, isbn)
	}
	return &meta, nil
}

func gatsbyLookup() *fakeLookup {
	return &fakeLookup{results: map[string]metadata.BookMetadata{
		"9780743273565": {Title: "The Great Gatsby", Author: "F. Scott Fitzgerald"},
	}}
}

// memoryStorage is an in-memory Storage that can be told to fail.
type memoryStorage struct {
	books   []models.Book
	saves   int
	failErr error
	loadErr error
}

func (m *memoryStorage) Load() ([]models.Book, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]models.Book(nil), m.books...), nil
}

func (m *memoryStorage) Save(books []models.Book) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.saves++
	m.books = append([]models.Book(nil), books...)
	return nil
}

func newFileStore(t *testing.T, lookup metadata.Lookup) (*Store, *FileStorage) {
	t.Helper()
	storage := NewFileStorage(filepath.Join(t.TempDir(), "library.json"))
	store, err := Open(storage, lookup)
	require.NoError(t, err)
	return store, storage
}

func TestAddBookManualEntry(t *testing.T) {
	lookup := gatsbyLookup()
	store, _ := newFileStore(t, lookup)

	book, err := store.AddBook(context.Background(), "9780451524935", "1984", "George Orwell")
	require.NoError(t, err)
	assert.Equal(t, models.Book{ISBN: "9780451524935", Title: "1984", Author: "George Orwell"}, book)
	assert.Empty(t, lookup.calls, "manual entry must not call the lookup")

	got, err := store.GetBook("9780451524935")
	require.NoError(t, err)
	assert.Equal(t, book, got)
}

func TestAddBookViaLookup(t *testing.T) {
	lookup := gatsbyLookup()
	store, _ := newFileStore(t, lookup)

	_, err := store.AddBook(context.Background(), "9780743273565", "", "")
	require.NoError(t, err)

	got, err := store.GetBook("9780743273565")
	require.NoError(t, err)
	assert.Equal(t, "The Great Gatsby", got.Title)
	assert.Equal(t, "F. Scott Fitzgerald", got.Author)
	assert.Equal(t, []string{"9780743273565"}, lookup.calls)
}

func TestAddBookPartialInputUsesLookup(t *testing.T) {
	lookup := gatsbyLookup()
	store, _ := newFileStore(t, lookup)

	book, err := store.AddBook(context.Background(), "9780743273565", "My Title", "")
	require.NoError(t, err)
	assert.Equal(t, "The Great Gatsby", book.Title)
	assert.Len(t, lookup.calls, 1)
}

func TestAddBookNormalizesISBN(t *testing.T) {
	store, _ := newFileStore(t, nil)

	book, err := store.AddBook(context.Background(), " 978-0-451-52493-5 ", "1984", "George Orwell")
	require.NoError(t, err)
	assert.Equal(t, "9780451524935", book.ISBN)

	_, err = store.GetBook("978 0451524935")
	assert.NoError(t, err)
}

func TestAddBookListsExactlyOnce(t *testing.T) {
	store, _ := newFileStore(t, nil)
	isbns := []string{"111", "222", "333"}
	for _, isbn := range isbns {
		_, err := store.AddBook(context.Background(), isbn, "T"+isbn, "A"+isbn)
		require.NoError(t, err)
	}

	for _, isbn := range isbns {
		got, err := store.GetBook(isbn)
		require.NoError(t, err)
		assert.Equal(t, models.Book{ISBN: isbn, Title: "T" + isbn, Author: "A" + isbn}, got)

		count := 0
		for _, b := range store.ListBooks() {
			if b.ISBN == isbn {
				count++
			}
		}
		assert.Equal(t, 1, count)
	}
}

func TestAddBookEmptyISBN(t *testing.T) {
	lookup := gatsbyLookup()
	store, _ := newFileStore(t, lookup)

	for _, isbn := range []string{"", "   ", "--"} {
		_, err := store.AddBook(context.Background(), isbn, "T", "A")
		assert.ErrorIs(t, err, ErrInvalidBook, "isbn %q", isbn)
	}
	assert.Zero(t, store.Len())
	assert.Empty(t, lookup.calls)
}

func TestAddBookDuplicate(t *testing.T) {
	lookup := gatsbyLookup()
	store, _ := newFileStore(t, lookup)

	first, err := store.AddBook(context.Background(), "9780451524935", "1984", "George Orwell")
	require.NoError(t, err)
	before := store.ListBooks()

	_, err = store.AddBook(context.Background(), "9780451524935", "Animal Farm", "George Orwell")
	assert.ErrorIs(t, err, ErrDuplicateISBN)

	_, err = store.AddBook(context.Background(), "9780451524935", "", "")
	assert.ErrorIs(t, err, ErrDuplicateISBN)
	assert.Empty(t, lookup.calls, "duplicate check happens before any lookup")

	assert.Equal(t, before, store.ListBooks())
	got, err := store.GetBook("9780451524935")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestAddBookLookupFailurePropagates(t *testing.T) {
	sentinels := []error{
		metadata.ErrInvalidISBN,
		metadata.ErrNetwork,
		metadata.ErrTimeout,
		metadata.ErrMalformedResponse,
	}
	for _, sentinel := range sentinels {
		t.Run(sentinel.Error(), func(t *testing.T) {
			storage := &memoryStorage{}
			lookup := &fakeLookup{err: fmt.Errorf("%w: simulated", sentinel)}
			store, err := Open(storage, lookup)
			require.NoError(t, err)
			_, err = store.AddBook(context.Background(), "1", "One", "Author")
			require.NoError(t, err)

			_, err = store.AddBook(context.Background(), "9780743273565", "", "")
			assert.ErrorIs(t, err, sentinel)
			assert.Same(t, lookup.err, err, "lookup errors are returned unchanged")
			assert.Equal(t, 1, store.Len())
			assert.Equal(t, 1, storage.saves)
		})
	}
}

func TestAddBookTimeoutLeavesCollectionUnchanged(t *testing.T) {
	lookup := &fakeLookup{err: fmt.Errorf("%w: deadline exceeded", metadata.ErrTimeout)}
	store, _ := newFileStore(t, lookup)
	_, err := store.AddBook(context.Background(), "9780451524935", "1984", "George Orwell")
	require.NoError(t, err)
	before := store.Len()

	_, err = store.AddBook(context.Background(), "9780743273565", "", "")
	assert.ErrorIs(t, err, metadata.ErrTimeout)
	assert.Equal(t, before, store.Len())
}

func TestAddBookRejectsIncompleteLookupResult(t *testing.T) {
	tests := []struct {
		name string
		meta *metadata.BookMetadata
	}{
		{"nil result", nil},
		{"empty result", &metadata.BookMetadata{}},
		{"blank author", &metadata.BookMetadata{Title: "The Great Gatsby", Author: "  "}},
		{"blank title", &metadata.BookMetadata{Title: "\t", Author: "F. Scott Fitzgerald"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &memoryStorage{}
			lookup := metadata.LookupFunc(func(context.Context, string) (*metadata.BookMetadata, error) {
				return tt.meta, nil
			})
			store, err := Open(storage, lookup)
			require.NoError(t, err)

			_, err = store.AddBook(context.Background(), "9780743273565", "", "")
			assert.ErrorIs(t, err, metadata.ErrMalformedResponse)
			assert.Zero(t, store.Len())
			assert.Zero(t, storage.saves)
		})
	}
}

func TestAddBookWithoutLookup(t *testing.T) {
	store, _ := newFileStore(t, nil)

	_, err := store.AddBook(context.Background(), "9780743273565", "", "")
	assert.ErrorIs(t, err, ErrLookupUnavailable)
	assert.Zero(t, store.Len())
}

func TestAddBookSaveFailureRollsBack(t *testing.T) {
	storage := &memoryStorage{}
	store, err := Open(storage, nil)
	require.NoError(t, err)
	_, err = store.AddBook(context.Background(), "1", "One", "A")
	require.NoError(t, err)
	before := store.ListBooks()

	storage.failErr = errors.New("disk full")
	_, err = store.AddBook(context.Background(), "2", "Two", "B")
	assert.ErrorIs(t, err, ErrPersistence)

	assert.Equal(t, before, store.ListBooks())
	_, err = store.GetBook("2")
	assert.ErrorIs(t, err, ErrNotFound)

	storage.failErr = nil
	_, err = store.AddBook(context.Background(), "2", "Two", "B")
	assert.NoError(t, err, "a rolled back add can be retried")
}

func TestRemoveBook(t *testing.T) {
	store, _ := newFileStore(t, nil)
	for _, isbn := range []string{"1", "2", "3"} {
		_, err := store.AddBook(context.Background(), isbn, "T"+isbn, "A")
		require.NoError(t, err)
	}

	removed, err := store.RemoveBook("2")
	require.NoError(t, err)
	assert.Equal(t, "T2", removed.Title)

	_, err = store.GetBook("2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []models.Book{
		{ISBN: "1", Title: "T1", Author: "A"},
		{ISBN: "3", Title: "T3", Author: "A"},
	}, store.ListBooks())
}

func TestRemoveBookAbsent(t *testing.T) {
	storage := &memoryStorage{}
	store, err := Open(storage, nil)
	require.NoError(t, err)
	_, err = store.AddBook(context.Background(), "1", "One", "A")
	require.NoError(t, err)
	before := store.ListBooks()

	_, err = store.RemoveBook("999")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, store.ListBooks())
	assert.Equal(t, 1, storage.saves)
}

func TestRemoveBookSaveFailureRestoresOrder(t *testing.T) {
	storage := &memoryStorage{}
	store, err := Open(storage, nil)
	require.NoError(t, err)
	for _, isbn := range []string{"1", "2", "3"} {
		_, err := store.AddBook(context.Background(), isbn, "T"+isbn, "A")
		require.NoError(t, err)
	}
	before := store.ListBooks()

	storage.failErr = errors.New("read-only filesystem")
	_, err = store.RemoveBook("2")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, before, store.ListBooks())
}

func TestGetBookAbsent(t *testing.T) {
	store, _ := newFileStore(t, nil)
	_, err := store.GetBook("9780743273565")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBooksEmptyAndIsCopy(t *testing.T) {
	store, _ := newFileStore(t, nil)
	books := store.ListBooks()
	assert.NotNil(t, books)
	assert.Empty(t, books)

	_, err := store.AddBook(context.Background(), "1", "One", "A")
	require.NoError(t, err)
	books = store.ListBooks()
	books[0].Title = "changed"

	got, err := store.GetBook("1")
	require.NoError(t, err)
	assert.Equal(t, "One", got.Title)
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	lookup := gatsbyLookup()
	store, storage := newFileStore(t, lookup)
	_, err := store.AddBook(context.Background(), "9780743273565", "", "")
	require.NoError(t, err)
	_, err = store.AddBook(context.Background(), "9780451524935", "1984", "George Orwell")
	require.NoError(t, err)

	reopened, err := Open(NewFileStorage(storage.Path()), nil)
	require.NoError(t, err)
	assert.Equal(t, store.ListBooks(), reopened.ListBooks())
}

func TestOpenMalformedStorage(t *testing.T) {
	storage := &memoryStorage{loadErr: errors.New("unexpected end of JSON input")}
	_, err := Open(storage, nil)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestLoadFailureKeepsCollection(t *testing.T) {
	storage := &memoryStorage{}
	store, err := Open(storage, nil)
	require.NoError(t, err)
	_, err = store.AddBook(context.Background(), "1", "One", "A")
	require.NoError(t, err)

	storage.loadErr = errors.New("corrupt")
	assert.ErrorIs(t, store.Load(), ErrPersistence)
	assert.Equal(t, 1, store.Len())
}

func TestReload(t *testing.T) {
	storage := &memoryStorage{}
	store, err := Open(storage, nil)
	require.NoError(t, err)
	_, err = store.AddBook(context.Background(), "1", "One", "A")
	require.NoError(t, err)

	changed, err := store.Reload()
	require.NoError(t, err)
	assert.False(t, changed, "our own write is not a change")

	storage.books = append(storage.books, models.Book{ISBN: "2", Title: "Two", Author: "B"})
	changed, err = store.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, store.Len())

	storage.loadErr = errors.New("corrupt")
	_, err = store.Reload()
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, 2, store.Len())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "duplicate", outcome(fmt.Errorf("%w: x", ErrDuplicateISBN)))
	assert.Equal(t, "not_found", outcome(ErrNotFound))
	assert.Equal(t, "persistence_error", outcome(ErrPersistence))
	assert.Equal(t, "lookup_error", outcome(metadata.ErrTimeout))
	assert.Equal(t, "lookup_error", outcome(ErrLookupUnavailable))
	assert.Equal(t, "error", outcome(errors.New("other")))
}
