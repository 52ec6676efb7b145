// Package websearch queries external search engines over an ordered
// fallback chain and parses their results into structured hits.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Default settings matching the browser-like requests the engines expect.
const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultTimeout   = 10 * time.Second
)

// Hit is a single parsed search result.
type Hit struct {
	Title   string
	Snippet string
	URL     string
	Rank    int // 1-based position in document order
}

// Response is the outcome of one search across the engine chain.
type Response struct {
	Engine string // engine that produced the hits
	Hits   []Hit
	Trace  string
}

// Engine is a single search backend. Engines return their parsed hits or
// an error when the backend could not be reached or answered non-200;
// zero hits with a nil error is a valid "no results" outcome.
type Engine interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Hit, error)
}

// StatusError reports a non-200 answer from a search engine.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search engine returned status code %d", e.Code)
}

// get issues a browser-like GET and returns the response. Non-200
// answers are converted to StatusError.
func get(ctx context.Context, client *http.Client, userAgent, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return resp, nil
}
