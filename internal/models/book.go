// file: internal/models/book.go
// version: 1.0.0
// guid: 0356abc7-e639-4039-b58e-a3da3d014267

package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyISBN is returned by Validate when a book has no usable ISBN.
var ErrEmptyISBN = errors.New("isbn must not be empty")

// Book is a single catalog entry keyed by ISBN.
type Book struct {
	ISBN   string `json:"isbn" yaml:"isbn"`
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
}

// String renders the book the way the menu and CLI list it.
func (b Book) String() string {
	return fmt.Sprintf("%s by %s (ISBN: %s)", b.Title, b.Author, b.ISBN)
}

// Validate checks the book can be stored.
func (b Book) Validate() error {
	if NormalizeISBN(b.ISBN) == "" {
		return ErrEmptyISBN
	}
	return nil
}

// NormalizeISBN strips surrounding whitespace and the hyphens or spaces
// commonly used to group ISBN digits. A trailing check character "x" is
// upper-cased. No checksum validation is performed.
func NormalizeISBN(isbn string) string {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(isbn))
	for _, r := range isbn {
		switch r {
		case '-', ' ', '\t':
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if strings.HasSuffix(out, "x") {
		out = out[:len(out)-1] + "X"
	}
	return out
}
