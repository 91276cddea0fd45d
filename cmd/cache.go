// file: cmd/cache.go
// version: 1.0.0
// guid: 2d4f6a8c-0e1b-4c3d-9f5a-7b9d1e3f5a7c

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdfalk/bookshelf/internal/config"
	"github.com/jdfalk/bookshelf/internal/models"
	"github.com/jdfalk/bookshelf/internal/openlibrary"
)

var errNoLookupCache = errors.New("no lookup cache configured (set --lookup-cache or lookup.cache_path)")

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local lookup cache",
	}
	cmd.AddCommand(newCacheStatsCmd(), newCacheClearCmd())
	return cmd
}

// openLookupCache opens the configured cache even when lookups are disabled.
func openLookupCache() (*openlibrary.Store, error) {
	cfg := config.AppConfig.Lookup
	if cfg.CachePath == "" {
		return nil, errNoLookupCache
	}
	store, err := openlibrary.NewStore(cfg.CachePath, cfg.CacheMaxAge)
	if err != nil {
		return nil, fmt.Errorf("opening lookup cache %s: %w", cfg.CachePath, err)
	}
	return store, nil
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many lookups are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLookupCache()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Count()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d cached lookups in %s\n", n, config.AppConfig.Lookup.CachePath)
			return err
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [isbn...]",
		Short: "Forget cached lookups",
		Long: `Forget cached lookups so the next add goes back to Open Library.

With no arguments every cached lookup is removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openLookupCache()
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			if len(args) == 0 {
				if err := store.Clear(); err != nil {
					return err
				}
				_, err = fmt.Fprintln(w, "Cleared lookup cache")
				return err
			}

			for _, arg := range args {
				isbn := models.NormalizeISBN(arg)
				if isbn == "" {
					return fmt.Errorf("invalid isbn %q", arg)
				}
				if err := store.Delete(isbn); err != nil {
					return fmt.Errorf("forgetting %s: %w", isbn, err)
				}
				if _, err := fmt.Fprintf(w, "Forgot %s\n", isbn); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
