// file: internal/library/persistence_test.go
// version: 1.0.0
// guid: 2c4e6a8d-0f2b-4c4e-8a8d-0f2b4c6e8a9d

package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/bookshelf/internal/models"
)

func TestFileStorageMissingFileIsEmpty(t *testing.T) {
	storage := NewFileStorage(filepath.Join(t.TempDir(), "library.json"))

	books, err := storage.Load()
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestFileStorageBlankFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))

	books, err := NewFileStorage(path).Load()
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestFileStorageSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	books := []models.Book{
		{ISBN: "9780743273565", Title: "The Great Gatsby", Author: "F. Scott Fitzgerald"},
		{ISBN: "9780451524935", Title: "1984", Author: "George Orwell"},
		{ISBN: "9782070612758", Title: "Le Petit Prince", Author: "Antoine de Saint-Exupéry"},
	}

	require.NoError(t, NewFileStorage(path).Save(books))
	loaded, err := NewFileStorage(path).Load()
	require.NoError(t, err)
	assert.Equal(t, books, loaded)
}

func TestFileStorageLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, NewFileStorage(path).Save([]models.Book{
		{ISBN: "9780451524935", Title: "1984", Author: "George Orwell"},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	expected := "[\n" +
		"  {\n" +
		"    \"isbn\": \"9780451524935\",\n" +
		"    \"title\": \"1984\",\n" +
		"    \"author\": \"George Orwell\"\n" +
		"  }\n" +
		"]\n"
	assert.Equal(t, expected, string(data))
}

func TestFileStorageSaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, NewFileStorage(path).Save(nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestFileStorageNormalizesStoredISBNs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"isbn": "0-306-40615-x", "title": "T", "author": "A"}]`), 0644))

	books, err := NewFileStorage(path).Load()
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "030640615X", books[0].ISBN)
}

func TestDecodeBooksMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `this is not json`},
		{"truncated", `[{"isbn": "1", "title": "T"`},
		{"object instead of array", `{"isbn": "1", "title": "T", "author": "A"}`},
		{"null", `null`},
		{"null element", `[null]`},
		{"missing isbn", `[{"title": "T", "author": "A"}]`},
		{"missing title", `[{"isbn": "1", "author": "A"}]`},
		{"missing author", `[{"isbn": "1", "title": "T"}]`},
		{"numeric isbn", `[{"isbn": 9780451524935, "title": "T", "author": "A"}]`},
		{"title wrong type", `[{"isbn": "1", "title": ["T"], "author": "A"}]`},
		{"empty isbn", `[{"isbn": "  ", "title": "T", "author": "A"}]`},
		{"duplicate isbn", `[{"isbn": "1", "title": "T", "author": "A"}, {"isbn": "1", "title": "U", "author": "B"}]`},
		{"duplicate after normalization", `[{"isbn": "12-3", "title": "T", "author": "A"}, {"isbn": "123", "title": "U", "author": "B"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBooks([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestOpenMalformedFileIsPersistenceError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"isbn": "1"`), 0644))

	_, err := Open(NewFileStorage(path), nil)
	assert.ErrorIs(t, err, ErrPersistence)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"isbn": "1"`, string(data), "a malformed file is never overwritten by a load")
}

func TestFileStorageChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	storage := NewFileStorage(path)

	changed, err := storage.Changed()
	require.NoError(t, err)
	assert.False(t, changed, "missing file matches a never-loaded storage")

	require.NoError(t, storage.Save([]models.Book{{ISBN: "1", Title: "T", Author: "A"}}))
	changed, err = storage.Changed()
	require.NoError(t, err)
	assert.False(t, changed, "own writes are not changes")

	require.NoError(t, os.WriteFile(path, []byte("[]\n"), 0644))
	changed, err = storage.Changed()
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = storage.Load()
	require.NoError(t, err)
	changed, err = storage.Changed()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestFileStorageSaveFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.json")
	require.NoError(t, os.Mkdir(path, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "x"), []byte("x"), 0644))

	store := NewStore(NewFileStorage(path), nil)
	_, err := store.AddBook(t.Context(), "1", "T", "A")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Zero(t, store.Len())
}
