// file: internal/menu/menu.go
// version: 1.0.0
// guid: 3d5f7b9c-1e3a-4d5f-9b9c-1e3a5d7f9b2c

// Package menu is the interactive terminal front end for a book library.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jdfalk/bookshelf/internal/library"
	"github.com/jdfalk/bookshelf/internal/metadata"
	"github.com/jdfalk/bookshelf/internal/models"
)

// Library is the set of store operations the menu drives.
type Library interface {
	AddBook(ctx context.Context, isbn, title, author string) (models.Book, error)
	RemoveBook(isbn string) (models.Book, error)
	GetBook(isbn string) (models.Book, error)
	ListBooks() []models.Book
}

const ruleWidth = 50

// maxSuggestions caps the "did you mean" list shown after a failed search.
const maxSuggestions = 3

// Menu reads choices line by line from in and writes to out.
type Menu struct {
	lib    Library
	in     *bufio.Scanner
	out    io.Writer
	styles styles
}

// New creates a menu over lib.
func New(lib Library, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		lib:    lib,
		in:     bufio.NewScanner(in),
		out:    out,
		styles: newStyles(out),
	}
}

// Run shows the main menu until the user exits, input ends, or ctx is done.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.printMainMenu()
		choice, ok := m.prompt("Enter your choice (1-5): ")
		if !ok {
			m.println("")
			m.println(m.styles.dim.Render("Exiting..."))
			return m.in.Err()
		}

		switch choice {
		case "1":
			m.addBook(ctx)
		case "2":
			m.removeBook()
		case "3":
			m.listBooks()
		case "4":
			m.searchBook()
		case "5":
			m.println(m.styles.title.Render("Goodbye!"))
			return nil
		default:
			m.errorf("Invalid choice. Please enter a number between 1 and 5.")
		}
	}
}

func (m *Menu) printMainMenu() {
	rule := m.styles.rule.Render(strings.Repeat("=", ruleWidth))
	m.println("")
	m.println(rule)
	m.println(m.styles.title.Render("        BOOKSHELF"))
	m.println(rule)
	for _, opt := range []string{"1. Add Book", "2. Remove Book", "3. List All Books", "4. Search Book", "5. Exit"} {
		m.println(m.styles.option.Render(opt))
	}
	m.println(rule)
}

func (m *Menu) addBook(ctx context.Context) {
	m.heading("Add New Book")
	m.println("1. Manual entry")
	m.println("2. ISBN lookup (automatic)")

	choice, ok := m.prompt("Enter your choice (1-2): ")
	if !ok {
		return
	}

	switch choice {
	case "1":
		title, ok := m.required("Enter book title: ", "Title")
		if !ok {
			return
		}
		author, ok := m.required("Enter book author: ", "Author")
		if !ok {
			return
		}
		isbn, ok := m.required("Enter book ISBN: ", "ISBN")
		if !ok {
			return
		}
		book, err := m.lib.AddBook(ctx, isbn, title, author)
		if err != nil {
			m.reportError(err)
			return
		}
		m.successf("Added %q.", book.Title)
	case "2":
		isbn, ok := m.required("Enter book ISBN: ", "ISBN")
		if !ok {
			return
		}
		m.println(m.styles.dim.Render("Looking up book information..."))
		book, err := m.lib.AddBook(ctx, isbn, "", "")
		if err != nil {
			m.reportError(err)
			return
		}
		m.successf("Added %q by %s.", book.Title, book.Author)
	default:
		m.errorf("Invalid choice. Please enter 1 or 2.")
	}
}

func (m *Menu) removeBook() {
	m.heading("Remove Book")
	isbn, ok := m.required("Enter ISBN of book to remove: ", "ISBN")
	if !ok {
		return
	}
	book, err := m.lib.RemoveBook(isbn)
	if err != nil {
		m.reportError(err)
		return
	}
	m.successf("Removed %s.", book)
}

func (m *Menu) listBooks() {
	m.heading("All Books")
	books := m.lib.ListBooks()
	if len(books) == 0 {
		m.println(m.styles.dim.Render("No books in the library."))
		return
	}
	m.println(fmt.Sprintf("Total books: %d", len(books)))
	m.println(m.styles.rule.Render(strings.Repeat("-", 60)))
	for i, book := range books {
		m.println(fmt.Sprintf("%d. %s", i+1, book))
	}
}

func (m *Menu) searchBook() {
	m.heading("Search Book")
	query, ok := m.required("Enter ISBN to search: ", "ISBN")
	if !ok {
		return
	}
	book, err := m.lib.GetBook(query)
	if err != nil {
		m.reportError(err)
		if errors.Is(err, library.ErrNotFound) {
			m.suggest(query)
		}
		return
	}
	m.println(m.styles.success.Render("Found: ") + book.String())
}

// suggest lists books whose ISBN is a near miss for query, or whose title
// fuzzily contains it.
func (m *Menu) suggest(query string) {
	type candidate struct {
		book  models.Book
		score int
	}
	normalized := models.NormalizeISBN(query)
	var candidates []candidate
	for _, book := range m.lib.ListBooks() {
		if d := fuzzy.LevenshteinDistance(normalized, book.ISBN); d <= 2 {
			candidates = append(candidates, candidate{book, d})
			continue
		}
		if d := fuzzy.RankMatchNormalizedFold(query, book.Title); d >= 0 {
			candidates = append(candidates, candidate{book, 3 + d})
		}
	}
	if len(candidates) == 0 {
		return
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score < candidates[j].score })
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	m.println(m.styles.hint.Render("Did you mean:"))
	for _, c := range candidates {
		m.println("  " + c.book.String())
	}
}

func (m *Menu) reportError(err error) {
	m.errorf("Error: %v", err)
	if errors.Is(err, metadata.ErrNetwork) || errors.Is(err, metadata.ErrTimeout) {
		m.println(m.styles.hint.Render("Please check your internet connection or try again later."))
	}
	if errors.Is(err, library.ErrLookupUnavailable) {
		m.println(m.styles.hint.Render("Lookup is disabled; use manual entry instead."))
	}
}

// prompt prints label and reads one trimmed line. ok is false at end of input.
func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, m.styles.prompt.Render(label))
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

// required prompts for a value that must not be empty.
func (m *Menu) required(label, field string) (string, bool) {
	value, ok := m.prompt(label)
	if !ok {
		return "", false
	}
	if value == "" {
		m.errorf("Error: %s cannot be empty.", field)
		return "", false
	}
	return value, true
}

func (m *Menu) heading(text string) {
	m.println("")
	m.println(m.styles.heading.Render("--- " + text + " ---"))
}

func (m *Menu) successf(format string, args ...any) {
	m.println(m.styles.success.Render(fmt.Sprintf(format, args...)))
}

func (m *Menu) errorf(format string, args ...any) {
	m.println(m.styles.err.Render(fmt.Sprintf(format, args...)))
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}
