package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// GoogleHTML scrapes Google's result page, the last engine in the chain.
type GoogleHTML struct {
	BaseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewGoogleHTML creates the Google HTML scraping engine.
func NewGoogleHTML(timeout time.Duration, userAgent string) *GoogleHTML {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &GoogleHTML{
		BaseURL:    "https://www.google.com",
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the engine in traces and settings.
func (e *GoogleHTML) Name() string { return "Google" }

// Search fetches the result page and parses "div.g" containers in
// document order. Results missing a title and link are skipped.
func (e *GoogleHTML) Search(ctx context.Context, query string, maxResults int) ([]Hit, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s", e.BaseURL, url.QueryEscape(query))

	resp, err := get(ctx, e.httpClient, e.userAgent, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	var hits []Hit
	doc.Find("div.g").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Find("h3").First().Text())
		href, _ := sel.Find("a[href]").First().Attr("href")
		if title == "" && href == "" {
			return true
		}
		hits = append(hits, Hit{
			Title:   title,
			Snippet: googleSnippet(sel, title),
			URL:     href,
			Rank:    len(hits) + 1,
		})
		return len(hits) < maxResults
	})
	return hits, nil
}

// googleSnippet picks the first span under the result container whose
// text is non-empty and distinct from the title.
func googleSnippet(sel *goquery.Selection, title string) string {
	var snippet string
	sel.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := strings.TrimSpace(span.Text())
		if text == "" || text == title {
			return true
		}
		snippet = text
		return false
	})
	return snippet
}
