// file: cmd/app.go
// version: 1.0.0
// guid: 0c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f

package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/jdfalk/bookshelf/internal/config"
	"github.com/jdfalk/bookshelf/internal/library"
	"github.com/jdfalk/bookshelf/internal/metadata"
	"github.com/jdfalk/bookshelf/internal/openlibrary"
)

// app bundles what a command needs to work with the library.
type app struct {
	store   *library.Store
	storage *library.FileStorage
	olStore *openlibrary.Store
}

// openApp loads the library at cfg.LibraryPath and wires up lookups.
func openApp(cfg config.Config) (*app, error) {
	lookup, olStore, err := buildLookup(cfg.Lookup)
	if err != nil {
		return nil, err
	}

	storage := library.NewFileStorage(cfg.LibraryPath)
	store, err := library.Open(storage, lookup)
	if err != nil {
		if olStore != nil {
			olStore.Close()
		}
		return nil, err
	}

	return &app{store: store, storage: storage, olStore: olStore}, nil
}

// Close releases the lookup cache, if any.
func (a *app) Close() error {
	if a.olStore == nil {
		return nil
	}
	return a.olStore.Close()
}

// buildLookup returns nil when lookups are disabled, so the store reports
// ErrLookupUnavailable instead of calling out.
func buildLookup(cfg config.LookupConfig) (metadata.Lookup, *openlibrary.Store, error) {
	if !cfg.Enabled {
		log.Printf("[INFO] ISBN lookup disabled")
		return nil, nil, nil
	}

	client := metadata.NewOpenLibraryClient(metadata.ClientConfig{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		UserAgent:         cfg.UserAgent,
		AuthorCacheTTL:    cfg.AuthorCacheTTL,
	})

	if cfg.CachePath == "" {
		return client, nil, nil
	}
	olStore, err := openlibrary.NewStore(cfg.CachePath, cfg.CacheMaxAge)
	if err != nil {
		return nil, nil, fmt.Errorf("opening lookup cache %s: %w", cfg.CachePath, err)
	}
	client.SetOLStore(olStore)
	log.Printf("[INFO] Using lookup cache at %s", cfg.CachePath)
	return client, olStore, nil
}

// closeApp closes a and folds any close error into err.
func closeApp(a *app, err *error) {
	if cerr := a.Close(); cerr != nil {
		*err = errors.Join(*err, fmt.Errorf("closing lookup cache: %w", cerr))
	}
}
