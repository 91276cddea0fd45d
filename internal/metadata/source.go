// file: internal/metadata/source.go
// version: 2.0.0
// guid: 9f2c4e6a-8b1d-4f3e-a5c7-2d4e6f8a0b1c

package metadata

import (
	"context"
	"errors"
)

// Lookup failure kinds. Callers branch on these with errors.Is; the wrapped
// error carries the transport or decode detail.
var (
	ErrInvalidISBN       = errors.New("isbn not recognised by metadata service")
	ErrNetwork           = errors.New("metadata service unreachable")
	ErrTimeout           = errors.New("metadata lookup timed out")
	ErrMalformedResponse = errors.New("malformed metadata response")
)

// BookMetadata is what a lookup resolves an ISBN to.
type BookMetadata struct {
	Title  string
	Author string
}

// Lookup resolves an ISBN to title and author. Implementations make a single
// bounded attempt and never retry.
type Lookup interface {
	Lookup(ctx context.Context, isbn string) (*BookMetadata, error)
}

// LookupFunc adapts a plain function to the Lookup interface.
type LookupFunc func(ctx context.Context, isbn string) (*BookMetadata, error)

// Lookup calls f(ctx, isbn).
func (f LookupFunc) Lookup(ctx context.Context, isbn string) (*BookMetadata, error) {
	return f(ctx, isbn)
}

// IsLookupError reports whether err is one of the lookup failure kinds.
func IsLookupError(err error) bool {
	return errors.Is(err, ErrInvalidISBN) ||
		errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrMalformedResponse)
}
