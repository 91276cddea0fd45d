// file: internal/openlibrary/store.go
// version: 3.1.0
// guid: c2a8e5b1-6f3d-4a97-b0c4-1d2e3f4a5b6c

package openlibrary

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cockroachdb/pebble/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned when no fresh record exists for an ISBN.
var ErrNotFound = errors.New("record not found")

const (
	prefixISBN = "ol:isbn:"
	upperISBN  = "ol:isbn;" // next byte after ':'
)

// Store keeps resolved ISBN lookups in PebbleDB so repeat lookups skip the
// network. Records older than maxAge are treated as missing.
type Store struct {
	db     *pebble.DB
	maxAge time.Duration
	now    func() time.Time
}

// NewStore opens or creates a PebbleDB instance at path. A maxAge of zero
// keeps records forever.
func NewStore(path string, maxAge time.Duration) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{
		FormatMajorVersion: pebble.FormatNewest,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup store: %w", err)
	}
	log.Printf("[INFO] lookup store opened at %s", path)
	return &Store{db: db, maxAge: maxAge, now: time.Now}, nil
}

// Close closes the underlying PebbleDB.
func (s *Store) Close() error {
	return s.db.Close()
}

func isbnKey(isbn string) []byte {
	return []byte(prefixISBN + strings.TrimSpace(isbn))
}

// LookupByISBN returns the stored record for isbn, or ErrNotFound.
func (s *Store) LookupByISBN(isbn string) (*Record, error) {
	val, closer, err := s.db.Get(isbnKey(isbn))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("corrupt record for %s: %w", isbn, err)
	}
	if s.maxAge > 0 && s.now().Sub(rec.FetchedAt) > s.maxAge {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Put stores rec, stamping FetchedAt when it is zero.
func (s *Store) Put(rec Record) error {
	if strings.TrimSpace(rec.ISBN) == "" {
		return fmt.Errorf("record has no isbn")
	}
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = s.now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Set(isbnKey(rec.ISBN), data, pebble.Sync)
}

// Delete removes the record for isbn. Deleting a missing key is not an error.
func (s *Store) Delete(isbn string) error {
	return s.db.Delete(isbnKey(isbn), pebble.Sync)
}

// Clear removes every stored record.
func (s *Store) Clear() error {
	return s.db.DeleteRange([]byte(prefixISBN), []byte(upperISBN), pebble.Sync)
}

// Count returns the number of stored records, stale ones included.
func (s *Store) Count() (int, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefixISBN),
		UpperBound: []byte(upperISBN),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n, iter.Error()
}
