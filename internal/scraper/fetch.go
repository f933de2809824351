package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	UserAgent = "chess-events/1.0 (github.com/pfrederiksen/chess-events)"
	Timeout   = 30 * time.Second
)

// ErrFetch wraps every page retrieval failure, including decoding failures.
var ErrFetch = errors.New("fetching page")

// Fetcher retrieves the text of a page. A non-empty encoding overrides whatever
// the server declares.
type Fetcher interface {
	Fetch(ctx context.Context, url, encoding string) (string, error)
}

// HTTPFetcher is the Fetcher used against live sites
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher. Zero values select Timeout and UserAgent.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = Timeout
	}
	if userAgent == "" {
		userAgent = UserAgent
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Fetch downloads url and decodes it to UTF-8
func (f *HTTPFetcher) Fetch(ctx context.Context, url, encoding string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %w", ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status code: %d", ErrFetch, resp.StatusCode)
	}

	var body io.Reader
	if encoding != "" {
		body, err = charset.NewReaderLabel(encoding, resp.Body)
	} else {
		body, err = charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	}
	if err != nil {
		return "", fmt.Errorf("%w: decoding %q: %w", ErrFetch, encoding, err)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %w", ErrFetch, err)
	}
	return string(data), nil
}
