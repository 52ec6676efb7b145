package websearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Client runs a query through an ordered engine chain, falling back to
// the next engine on transport or HTTP failure. Parse failures are not
// fallback triggers: an engine that answered 200 but yielded no hits is
// a valid "no results" outcome.
type Client struct {
	engines []Engine
}

// NewClient creates a search client over the given engine chain.
func NewClient(engines ...Engine) *Client {
	return &Client{engines: engines}
}

// DefaultChain builds the standard engine order: the structured
// DuckDuckGo API first, then the DuckDuckGo and Google HTML scrapers.
func DefaultChain(timeout time.Duration, userAgent string) []Engine {
	return []Engine{
		NewDuckDuckGoAPI(timeout, userAgent),
		NewDuckDuckGoHTML(timeout, userAgent),
		NewGoogleHTML(timeout, userAgent),
	}
}

// Search tries each engine in order and returns the first successful
// response. The returned error is non-nil only when every engine failed
// at the transport or HTTP level; the trace is populated either way.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (*Response, error) {
	start := time.Now()
	trace := newTrace(query, maxResults)

	if len(c.engines) == 0 {
		trace.addf("No search engines configured")
		return &Response{Trace: trace.render(start)}, errors.New("no search engines configured")
	}

	var lastErr error
	for i, engine := range c.engines {
		trace.addf("Engine: %s", engine.Name())
		hits, err := engine.Search(ctx, query, maxResults)
		if err != nil {
			lastErr = err
			trace.addf("%s failed: %v", engine.Name(), err)
			if i < len(c.engines)-1 {
				trace.addf("Falling back to next engine")
			}
			continue
		}

		trace.addf("%s returned %d results", engine.Name(), len(hits))
		if len(hits) == 0 {
			trace.addf("No search results found")
		}
		for _, hit := range hits {
			trace.addf("Result %d - %s", hit.Rank, hit.Title)
		}
		return &Response{Engine: engine.Name(), Hits: hits, Trace: trace.render(start)}, nil
	}

	return &Response{Trace: trace.render(start)},
		fmt.Errorf("all search engines failed: %w", lastErr)
}

// trace accumulates the diagnostic log of one search operation.
type trace struct {
	lines []string
}

func newTrace(query string, maxResults int) *trace {
	t := &trace{}
	t.addf("Search query: %q", query)
	t.addf("Search time: %s", time.Now().Format("2006-01-02 15:04:05"))
	t.addf("Max results: %d", maxResults)
	return t
}

func (t *trace) addf(format string, args ...any) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

func (t *trace) render(start time.Time) string {
	t.addf("Elapsed: %s", time.Since(start).Truncate(time.Millisecond))
	return strings.Join(t.lines, "\n")
}
