// Package fonts resolves font family names to loadable font files.
//
// The resolver asks the Google Fonts CSS endpoint for the family, extracts
// the first font file URL from the stylesheet and downloads it. Downloaded
// files are cached by family name so a batch never fetches the same family
// twice; with a Redis-backed cache the pool is shared across instances.
//
// When the remote service cannot supply the family, the resolver falls back
// to a local font lookup before failing with RESOURCE_UNAVAILABLE. That
// failure is scoped to the guest/region being rendered, never to the batch.
package fonts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/flopp/go-findfont"

	"github.com/pawanm992002/nimantran-backend/pkg/cache"
	"github.com/pawanm992002/nimantran-backend/pkg/errors"
	"github.com/pawanm992002/nimantran-backend/pkg/httputil"
	"github.com/pawanm992002/nimantran-backend/pkg/observability"
)

// DefaultCSSEndpoint is the stylesheet endpoint queried per family.
const DefaultCSSEndpoint = "https://fonts.googleapis.com/css2"

// fontFileURL extracts the first font file URL from a fonts stylesheet.
var fontFileURL = regexp.MustCompile(`url\((https://[^)]+)\)`)

// Resolver resolves font family names to TTF bytes.
//
// The zero value is not usable; construct with NewResolver. A Resolver is
// safe for concurrent use by the guest fan-out.
type Resolver struct {
	endpoint string
	client   *http.Client
	cache    cache.Cache
	logger   *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEndpoint overrides the stylesheet endpoint (used by tests).
func WithEndpoint(endpoint string) Option {
	return func(r *Resolver) { r.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// NewResolver creates a resolver backed by the given cache.
// A nil cache disables caching; a nil logger discards logs.
func NewResolver(c cache.Cache, logger *log.Logger, opts ...Option) *Resolver {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	r := &Resolver{
		endpoint: DefaultCSSEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		cache:    c,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the font file bytes for a family name.
func (r *Resolver) Resolve(ctx context.Context, family string) ([]byte, error) {
	if err := errors.ValidateFontFamily(family); err != nil {
		return nil, err
	}

	key := cache.FontKey(family)
	if data, hit, err := r.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "font")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "font")

	data, err := r.fetchRemote(ctx, family)
	if err != nil {
		r.logger.Warn("remote font lookup failed, trying local fonts", "family", family, "err", err)
		local, lerr := localFont(family)
		if lerr != nil {
			return nil, errors.Wrap(errors.ErrCodeResourceUnavailable, err, "no font asset for family %q", family)
		}
		data = local
	}

	_ = r.cache.Set(ctx, key, data, cache.TTLFont)
	observability.Cache().OnCacheSet(ctx, "font", len(data))
	return data, nil
}

// fetchRemote downloads the family's first font file via the CSS endpoint.
func (r *Resolver) fetchRemote(ctx context.Context, family string) ([]byte, error) {
	cssURL := fmt.Sprintf("%s?family=%s", r.endpoint, url.QueryEscape(family))

	css, err := r.get(ctx, cssURL)
	if err != nil {
		return nil, fmt.Errorf("fetch stylesheet: %w", err)
	}

	fileURL, err := ExtractFontURL(string(css))
	if err != nil {
		return nil, err
	}

	data, err := r.get(ctx, fileURL)
	if err != nil {
		return nil, fmt.Errorf("fetch font file: %w", err)
	}
	return data, nil
}

// get performs a GET and returns the body for 2xx responses. Network
// failures and 5xx responses are retried with backoff; client errors are
// returned immediately.
func (r *Resolver) get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return &httputil.RetryableError{Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return &httputil.RetryableError{Err: fmt.Errorf("status %d from %s", resp.StatusCode, rawURL)}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	return body, err
}

// ExtractFontURL pulls the first url(https://...) reference out of a fonts
// stylesheet. Exposed for testing.
func ExtractFontURL(css string) (string, error) {
	m := fontFileURL.FindStringSubmatch(css)
	if m == nil {
		return "", fmt.Errorf("no font file URL in stylesheet")
	}
	return m[1], nil
}

// localFont looks for an installed font file matching the family name.
func localFont(family string) ([]byte, error) {
	name := strings.ReplaceAll(family, " ", "") + ".ttf"
	path, err := findfont.Find(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
