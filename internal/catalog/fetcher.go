// Package catalog fetches and locally caches the active-satellite TLE
// feed, serving listings from a single persisted snapshot with time-based
// invalidation and stale-on-error fallback.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultFeedURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle"

// maxFetchBytes caps the feed response so a misbehaving upstream cannot
// consume unbounded memory. The full active catalog is ~5 MB.
const maxFetchBytes = 50 * 1024 * 1024

// Fetcher retrieves the raw TLE feed from the upstream source.
type Fetcher struct {
	feedURL    string
	httpClient *http.Client
}

// NewFetcher creates a Fetcher for the given feed URL. An empty URL
// selects the CelesTrak active-objects feed.
func NewFetcher(feedURL string) *Fetcher {
	if feedURL == "" {
		feedURL = defaultFeedURL
	}
	return &Fetcher{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FeedURL returns the configured feed URL.
func (f *Fetcher) FeedURL() string {
	return f.feedURL
}

// Fetch performs a single HTTP GET of the feed. No retries: a failure is
// reported immediately and the caller decides whether stale data will do.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, f.feedURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading feed body: %w", err)
	}
	if len(body) > maxFetchBytes {
		return nil, fmt.Errorf("feed exceeds %d byte limit", maxFetchBytes)
	}

	return body, nil
}
