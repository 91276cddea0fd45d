// file: internal/testutil/mock_openlibrary.go
// version: 2.0.0
// guid: 1e3a5c7d-9f2b-4d6e-8a0c-3e5a7c9e1b3d

package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// OpenLibraryFake is an httptest.Server that mimics the Open Library JSON
// endpoints used for ISBN lookups. Responses are keyed by exact URL path.
type OpenLibraryFake struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]string
	hits      map[string]int
}

// MockOpenLibraryServer starts a fake serving responses (path -> JSON body).
// Unknown paths get a 404. The server is closed when the test ends.
func MockOpenLibraryServer(t *testing.T, responses map[string]string) *OpenLibraryFake {
	t.Helper()
	fake := &OpenLibraryFake{
		responses: make(map[string]string, len(responses)),
		hits:      make(map[string]int),
	}
	for path, body := range responses {
		fake.responses[path] = body
	}
	fake.Server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.Close)
	return fake
}

func (f *OpenLibraryFake) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	body, ok := f.responses[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

// Hits returns how many times path was requested.
func (f *OpenLibraryFake) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// TotalHits returns the number of requests served.
func (f *OpenLibraryFake) TotalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.hits {
		n += c
	}
	return n
}

// GatsbyISBN is the ISBN of the edition served by StandardResponses.
const GatsbyISBN = "9780743273565"

// StandardResponses returns an edition of The Great Gatsby plus its author,
// and an edition of Good Omens with two authors.
func StandardResponses() map[string]string {
	return map[string]string{
		"/isbn/9780743273565.json": `{
			"key": "/books/OL22570129M",
			"title": "The Great Gatsby",
			"authors": [{"key": "/authors/OL27349A"}],
			"works": [{"key": "/works/OL468431W"}],
			"publishers": ["Scribner"],
			"publish_date": "2004"
		}`,
		"/authors/OL27349A.json": `{"key": "/authors/OL27349A", "name": "F. Scott Fitzgerald"}`,

		"/isbn/9780060853983.json": `{
			"title": "Good Omens",
			"authors": [{"key": "/authors/OL2623297A"}, {"key": "/authors/OL25712A"}]
		}`,
		"/authors/OL2623297A.json": `{"name": "Terry Pratchett"}`,
		"/authors/OL25712A.json":   `{"name": "Neil Gaiman"}`,
	}
}
