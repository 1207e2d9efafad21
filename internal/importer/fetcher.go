package importer

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/pders01/fora/internal/config"
)

const defaultRetryAfter = 15 * time.Minute

// Validators are the cache validators remembered from the last fetch.
type Validators struct {
	ETag         string
	LastModified string
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL        string
	Code       int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.Code)
}

// Fetcher downloads feeds politely: one user agent, conditional requests
// and a shared rate limit across concurrent imports.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	limiter     *rate.Limiter
	ignoreCache bool
}

func NewFetcher(cfg *config.Config) *Fetcher {
	limit := rate.Inf
	if cfg.Import.RateLimit > 0 {
		limit = rate.Limit(cfg.Import.RateLimit)
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Import.HTTPTimeout},
		userAgent: cfg.Import.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// SetIgnoreCache makes Fetch skip the conditional request headers.
func (f *Fetcher) SetIgnoreCache(ignore bool) {
	f.ignoreCache = ignore
}

// Fetch requests url. It returns (nil, false, nil) when the server answers
// 304 Not Modified; otherwise the caller owns the response body.
func (f *Fetcher) Fetch(ctx context.Context, url string, v Validators) (*http.Response, bool, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, text/xml;q=0.8")

	if !f.ignoreCache {
		if v.ETag != "" {
			req.Header.Set("If-None-Match", v.ETag)
		}
		if v.LastModified != "" {
			req.Header.Set("If-Modified-Since", v.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fetching %s: %w", url, err)
	}

	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		return nil, false, nil
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, false, &StatusError{URL: url, Code: resp.StatusCode, RetryAfter: RetryAfter(resp)}
	}

	return resp, true, nil
}

// ValidatorsOf extracts the cache validators of resp.
func ValidatorsOf(resp *http.Response) Validators {
	return Validators{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
}

// RetryAfter reads the Retry-After header in either of its forms.
func RetryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(h); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(h); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return defaultRetryAfter
}
