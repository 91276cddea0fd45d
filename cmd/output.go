// file: cmd/output.go
// version: 1.0.0
// guid: 2e3f4a5b-6c7d-8e9f-0a1b-2c3d4e5f6a7b

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/jdfalk/bookshelf/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	formatText  = "text"
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q (want one of %v)", format, allowed)
}

// writeBooks renders books as an aligned table, JSON or YAML.
func writeBooks(w io.Writer, books []models.Book, format string) error {
	switch format {
	case formatJSON:
		if books == nil {
			books = []models.Book{}
		}
		return writeJSON(w, books)
	case formatYAML:
		return writeYAML(w, books)
	}

	if len(books) == 0 {
		_, err := fmt.Fprintln(w, "No books in the library.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tISBN\tTITLE\tAUTHOR")
	for i, b := range books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, b.ISBN, b.Title, b.Author)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Total books: %d\n", len(books))
	return err
}

// writeBook renders one book as a line of text, JSON or YAML.
func writeBook(w io.Writer, book models.Book, format string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, book)
	case formatYAML:
		return writeYAML(w, book)
	}
	_, err := fmt.Fprintln(w, book.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
