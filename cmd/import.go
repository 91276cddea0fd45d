// file: cmd/import.go
// version: 1.0.0
// guid: 4a5b6c7d-8e9f-0a1b-2c3d-4e5f6a7b8c9d

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jdfalk/bookshelf/internal/config"
	"github.com/jdfalk/bookshelf/internal/library"
)

// importResult tallies one import run.
type importResult struct {
	added      int
	duplicates int
	failures   []string
}

func newImportCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add every ISBN listed in a file",
		Long: `Add every ISBN listed in a file, one per line, looking each up on
Open Library. Blank lines and lines starting with # are ignored. Books
already in the library are skipped. Use "-" to read standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			isbns, err := readISBNs(cmd, args[0])
			if err != nil {
				return err
			}

			a, err := openApp(config.AppConfig)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			progress := cmd.ErrOrStderr()
			if quiet {
				progress = io.Discard
			}
			res := importISBNs(cmd, a.store, isbns, progress)

			out := cmd.OutOrStdout()
			for _, f := range res.failures {
				fmt.Fprintf(out, "Failed: %s\n", f)
			}
			fmt.Fprintf(out, "Imported %d, skipped %d duplicates, %d failed\n", res.added, res.duplicates, len(res.failures))
			if len(res.failures) > 0 {
				return fmt.Errorf("%d of %d imports failed", len(res.failures), len(isbns))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not show a progress bar")
	return cmd
}

func importISBNs(cmd *cobra.Command, store *library.Store, isbns []string, progress io.Writer) importResult {
	bar := progressbar.NewOptions(len(isbns),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(progress) }),
	)

	var res importResult
	for _, isbn := range isbns {
		if cmd.Context().Err() != nil {
			res.failures = append(res.failures, fmt.Sprintf("%s: %v", isbn, cmd.Context().Err()))
			continue
		}
		book, err := store.AddBook(cmd.Context(), isbn, "", "")
		switch {
		case err == nil:
			res.added++
			log.Printf("[INFO] Import: added %s", book)
		case errors.Is(err, library.ErrDuplicateISBN):
			res.duplicates++
		default:
			res.failures = append(res.failures, fmt.Sprintf("%s: %v", isbn, err))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return res
}

// readISBNs returns the non-blank, non-comment lines of path ("-" is stdin).
func readISBNs(cmd *cobra.Command, path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening import file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var isbns []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		isbns = append(isbns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}
	return isbns, nil
}
