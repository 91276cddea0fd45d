// file: internal/library/persistence.go
// version: 1.0.0
// guid: 6c8e0a2d-4f6b-4c8e-9a2d-4f6b8c0e2a3d

package library

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/jdfalk/bookshelf/internal/fileops"
	"github.com/jdfalk/bookshelf/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Storage loads and saves the full collection.
type Storage interface {
	Load() ([]models.Book, error)
	Save(books []models.Book) error
}

// FileStorage keeps the collection in a JSON file: an indented array of
// {isbn, title, author} records.
type FileStorage struct {
	path string

	mu       sync.Mutex
	lastHash string
}

// NewFileStorage returns a FileStorage backed by path. The file is not
// touched until Load or Save.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the backing file path.
func (fs *FileStorage) Path() string {
	return fs.path
}

// record mirrors a stored book. Pointer fields let the decoder tell a
// missing field from an empty one.
type record struct {
	ISBN   *string `json:"isbn"`
	Title  *string `json:"title"`
	Author *string `json:"author"`
}

// Load reads the collection. A missing or blank file is an empty collection.
func (fs *FileStorage) Load() ([]models.Book, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fs.remember(nil)
			return []models.Book{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", fs.path, err)
	}

	books, err := DecodeBooks(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fs.path, err)
	}
	fs.remember(data)
	return books, nil
}

// Save replaces the file with books.
func (fs *FileStorage) Save(books []models.Book) error {
	data, err := EncodeBooks(books)
	if err != nil {
		return err
	}
	if err := fileops.WriteFileAtomic(fs.path, data, 0644); err != nil {
		return err
	}
	fs.remember(data)
	return nil
}

// Changed reports whether the file differs from what this FileStorage last
// read or wrote.
func (fs *FileStorage) Changed() (bool, error) {
	hash, err := fileops.ComputeFileHash(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		hash, err = "", nil
	}
	if err != nil {
		return false, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return hash != fs.lastHash, nil
}

func (fs *FileStorage) remember(data []byte) {
	hash := ""
	if data != nil {
		hash = fileops.HashBytes(data)
	}
	fs.mu.Lock()
	fs.lastHash = hash
	fs.mu.Unlock()
}

// EncodeBooks renders books in the storage layout.
func EncodeBooks(books []models.Book) ([]byte, error) {
	if books == nil {
		books = []models.Book{}
	}
	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding library: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeBooks parses the storage layout. Every record needs all three
// fields as strings and a non-empty ISBN; ISBNs are normalized and must be
// unique. Blank input decodes to an empty collection.
func DecodeBooks(data []byte) ([]models.Book, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Book{}, nil
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("malformed library data: %w", err)
	}
	if records == nil {
		return nil, errors.New("malformed library data: expected an array of books")
	}

	books := make([]models.Book, 0, len(records))
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		switch {
		case rec.ISBN == nil:
			return nil, fmt.Errorf("book %d: missing isbn", i)
		case rec.Title == nil:
			return nil, fmt.Errorf("book %d: missing title", i)
		case rec.Author == nil:
			return nil, fmt.Errorf("book %d: missing author", i)
		}
		book := models.Book{
			ISBN:   models.NormalizeISBN(*rec.ISBN),
			Title:  *rec.Title,
			Author: *rec.Author,
		}
		if err := book.Validate(); err != nil {
			return nil, fmt.Errorf("book %d: %w", i, err)
		}
		if prev, dup := seen[book.ISBN]; dup {
			return nil, fmt.Errorf("book %d: isbn %s duplicates book %d", i, book.ISBN, prev)
		}
		seen[book.ISBN] = i
		books = append(books, book)
	}
	return books, nil
}
