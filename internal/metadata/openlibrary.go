// file: internal/metadata/openlibrary.go
// version: 2.0.0
// guid: 3b7e9d1f-5a2c-4e6b-8d0f-1a3c5e7b9d2f

package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"

	"github.com/jdfalk/bookshelf/internal/cache"
	"github.com/jdfalk/bookshelf/internal/metrics"
	"github.com/jdfalk/bookshelf/internal/openlibrary"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultOpenLibraryURL is the public Open Library endpoint.
	DefaultOpenLibraryURL = "https://openlibrary.org"
	// DefaultTimeout bounds a whole lookup, author resolution included.
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent identifies the client, as Open Library asks API users to do.
	DefaultUserAgent = "bookshelf/1.0 (+https://github.com/jdfalk/bookshelf)"

	maxResponseBytes = 4 << 20
)

// ClientConfig configures an OpenLibraryClient.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond caps outgoing requests; zero or less disables the limit.
	RequestsPerSecond float64
	UserAgent         string
	AuthorCacheTTL    time.Duration
}

// DefaultClientConfig returns the default configuration. OPENLIBRARY_BASE_URL
// overrides the base URL.
func DefaultClientConfig() ClientConfig {
	baseURL := os.Getenv("OPENLIBRARY_BASE_URL")
	if baseURL == "" {
		baseURL = DefaultOpenLibraryURL
	}
	return ClientConfig{
		BaseURL:           baseURL,
		Timeout:           DefaultTimeout,
		RequestsPerSecond: 3,
		UserAgent:         DefaultUserAgent,
		AuthorCacheTTL:    time.Hour,
	}
}

// OpenLibraryClient resolves ISBNs against the Open Library API.
// When olStore is set, previously resolved ISBNs are answered locally.
type OpenLibraryClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	timeout    time.Duration
	limiter    *rate.Limiter
	authors    *cache.Cache[string]
	olStore    *openlibrary.Store
}

// NewOpenLibraryClient creates a client from cfg, filling zero fields with defaults.
func NewOpenLibraryClient(cfg ClientConfig) *OpenLibraryClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenLibraryURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.AuthorCacheTTL <= 0 {
		cfg.AuthorCacheTTL = time.Hour
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		limiter:   limiter,
		authors:   cache.New[string](cfg.AuthorCacheTTL),
	}
}

// NewOpenLibraryClientWithBaseURL creates an unthrottled client with a custom base URL.
func NewOpenLibraryClientWithBaseURL(baseURL string) *OpenLibraryClient {
	cfg := DefaultClientConfig()
	cfg.BaseURL = baseURL
	cfg.RequestsPerSecond = 0
	return NewOpenLibraryClient(cfg)
}

// SetOLStore attaches a local record store for local-first lookups.
func (c *OpenLibraryClient) SetOLStore(store *openlibrary.Store) {
	c.olStore = store
}

// Lookup resolves isbn to a title and a comma-joined author list.
func (c *OpenLibraryClient) Lookup(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("%w: empty isbn", ErrInvalidISBN)
	}

	if meta := c.lookupLocal(isbn); meta != nil {
		metrics.IncLookup("cached")
		return meta, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	meta, err := c.fetch(ctx, isbn)
	metrics.IncLookup(lookupOutcome(err))
	if err != nil {
		log.Printf("[WARN] Lookup: ISBN %s failed after %v: %v", isbn, time.Since(start), err)
		return nil, err
	}
	log.Printf("[DEBUG] Lookup: ISBN %s resolved to %q by %s in %v", isbn, meta.Title, meta.Author, time.Since(start))

	c.storeLocal(isbn, meta)
	return meta, nil
}

func (c *OpenLibraryClient) fetch(ctx context.Context, isbn string) (*BookMetadata, error) {
	var ed openlibrary.Edition
	if err := c.getJSON(ctx, "/isbn/"+url.PathEscape(isbn)+".json", &ed, ErrInvalidISBN); err != nil {
		return nil, err
	}
	if ed.Title == nil || cleanText(*ed.Title) == "" {
		return nil, fmt.Errorf("%w: edition for %s has no title", ErrMalformedResponse, isbn)
	}

	keys, err := refKeys(ed.Authors, "/authors/")
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		// Many editions only carry authors on their work record.
		keys, err = c.workAuthorKeys(ctx, ed.Works)
		if err != nil {
			return nil, err
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no authors listed for %s", ErrMalformedResponse, isbn)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		name, err := c.authorName(ctx, key)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return &BookMetadata{
		Title:  cleanText(*ed.Title),
		Author: strings.Join(names, ", "),
	}, nil
}

func (c *OpenLibraryClient) workAuthorKeys(ctx context.Context, works []openlibrary.Ref) ([]string, error) {
	workKeys, err := refKeys(works, "/works/")
	if err != nil || len(workKeys) == 0 {
		return nil, err
	}

	var work openlibrary.Work
	if err := c.getJSON(ctx, workKeys[0]+".json", &work, ErrMalformedResponse); err != nil {
		return nil, err
	}

	refs := make([]openlibrary.Ref, 0, len(work.Authors))
	for _, wa := range work.Authors {
		if wa.Author == nil {
			return nil, fmt.Errorf("%w: work %s has an author entry without a reference", ErrMalformedResponse, workKeys[0])
		}
		refs = append(refs, *wa.Author)
	}
	return refKeys(refs, "/authors/")
}

func (c *OpenLibraryClient) authorName(ctx context.Context, key string) (string, error) {
	return c.authors.GetOrLoad(key, func() (string, error) {
		var author openlibrary.Author
		if err := c.getJSON(ctx, key+".json", &author, ErrMalformedResponse); err != nil {
			return "", err
		}
		if author.Name == nil || cleanText(*author.Name) == "" {
			return "", fmt.Errorf("%w: author %s has no name", ErrMalformedResponse, key)
		}
		return cleanText(*author.Name), nil
	})
}

// getJSON fetches base+path into target. A 400 or 404 maps to notFound.
func (c *OpenLibraryClient) getJSON(ctx context.Context, path string, target any, notFound error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("%w: %s: %w", ErrNetwork, path, err)
		}
		// The limiter refuses waits that would overrun the deadline.
		return fmt.Errorf("%w: %s: %w", ErrTimeout, path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: building request for %s: %w", ErrNetwork, path, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s returned status %d", notFound, path, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s returned status %d", ErrNetwork, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyTransportError(path, err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrMalformedResponse, path, err)
	}
	return nil
}

func (c *OpenLibraryClient) lookupLocal(isbn string) *BookMetadata {
	if c.olStore == nil {
		return nil
	}
	rec, err := c.olStore.LookupByISBN(isbn)
	if err != nil {
		if !errors.Is(err, openlibrary.ErrNotFound) {
			log.Printf("[WARN] Lookup: local store read for %s failed: %v", isbn, err)
		}
		return nil
	}
	log.Printf("[DEBUG] Lookup: found ISBN %s in local store", isbn)
	return &BookMetadata{Title: rec.Title, Author: rec.Author}
}

func (c *OpenLibraryClient) storeLocal(isbn string, meta *BookMetadata) {
	if c.olStore == nil {
		return
	}
	rec := openlibrary.Record{ISBN: isbn, Title: meta.Title, Author: meta.Author}
	if err := c.olStore.Put(rec); err != nil {
		log.Printf("[WARN] Lookup: local store write for %s failed: %v", isbn, err)
	}
}

// refKeys extracts reference keys, requiring each to start with prefix.
// Duplicate keys are dropped.
func refKeys(refs []openlibrary.Ref, prefix string) ([]string, error) {
	keys := make([]string, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if ref.Key == nil || !strings.HasPrefix(*ref.Key, prefix) || len(*ref.Key) == len(prefix) {
			return nil, fmt.Errorf("%w: invalid reference, expected %s<id>", ErrMalformedResponse, prefix)
		}
		if seen[*ref.Key] {
			continue
		}
		seen[*ref.Key] = true
		keys = append(keys, *ref.Key)
	}
	return keys, nil
}

func classifyTransportError(path string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %w", ErrTimeout, path, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrNetwork, path, err)
}

func lookupOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidISBN):
		return "invalid_isbn"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "network"
	}
}

func cleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
