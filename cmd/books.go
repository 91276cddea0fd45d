// file: cmd/books.go
// version: 1.0.0
// guid: 3f4a5b6c-7d8e-9f0a-1b2c-3d4e5f6a7b8c

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdfalk/bookshelf/internal/config"
)

func newAddCmd() *cobra.Command {
	var title, author, format string

	cmd := &cobra.Command{
		Use:   "add <isbn>",
		Short: "Add a book by ISBN",
		Long: `Add a book by ISBN.

With both --title and --author the book is added as given. Otherwise the
title and author are looked up on Open Library.`,
		Example: `  bookshelf add 9780743273565
  bookshelf add 978-0-06-085398-3 --title "Good Omens" --author "Terry Pratchett, Neil Gaiman"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := checkFormat(format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}
			a, err := openApp(config.AppConfig)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			book, err := a.store.AddBook(cmd.Context(), args[0], title, author)
			if err != nil {
				return err
			}
			if format != formatText {
				return writeBook(cmd.OutOrStdout(), book, format)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", book)
			return err
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "book title (skips the lookup when --author is also set)")
	cmd.Flags().StringVar(&author, "author", "", "book author (skips the lookup when --title is also set)")
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "output format: text, json or yaml")
	return cmd
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <isbn>",
		Aliases: []string{"rm"},
		Short:   "Remove a book by ISBN",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := openApp(config.AppConfig)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			book, err := a.store.RemoveBook(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", book)
			return err
		},
	}
}

func newGetCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "get <isbn>",
		Aliases: []string{"search"},
		Short:   "Show a book by ISBN",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := checkFormat(format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}
			a, err := openApp(config.AppConfig)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			book, err := a.store.GetBook(args[0])
			if err != nil {
				return err
			}
			return writeBook(cmd.OutOrStdout(), book, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatText, "output format: text, json or yaml")
	return cmd
}

func newListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every book in insertion order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := checkFormat(format, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}
			a, err := openApp(config.AppConfig)
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			return writeBooks(cmd.OutOrStdout(), a.store.ListBooks(), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table, json or yaml")
	return cmd
}
