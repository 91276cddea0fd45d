// file: internal/openlibrary/types.go
// version: 2.0.0
// guid: 7d0f4a63-9b1e-4c2d-8e5f-3a6b7c8d9e01

package openlibrary

import "time"

// Ref is a `{"key": "/authors/OL1A"}` style reference. Key is a pointer so a
// missing key can be told apart from an empty one.
type Ref struct {
	Key *string `json:"key"`
}

// Edition is the subset of /isbn/{isbn}.json the lookup relies on.
type Edition struct {
	Title   *string `json:"title"`
	Authors []Ref   `json:"authors"`
	Works   []Ref   `json:"works"`
}

// WorkAuthor wraps the author reference inside a work record.
type WorkAuthor struct {
	Author *Ref `json:"author"`
}

// Work is the subset of /works/{id}.json used when an edition carries no
// author references of its own.
type Work struct {
	Authors []WorkAuthor `json:"authors"`
}

// Author is the subset of /authors/{id}.json used for display names.
type Author struct {
	Name *string `json:"name"`
}

// Record is a resolved ISBN lookup kept in the local store.
type Record struct {
	ISBN      string    `json:"isbn"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	FetchedAt time.Time `json:"fetched_at"`
}
