package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DuckDuckGoAPI queries the DuckDuckGo instant-answer API, the preferred
// structured backend when it is reachable.
type DuckDuckGoAPI struct {
	BaseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewDuckDuckGoAPI creates the instant-answer API engine.
func NewDuckDuckGoAPI(timeout time.Duration, userAgent string) *DuckDuckGoAPI {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &DuckDuckGoAPI{
		BaseURL:    "https://api.duckduckgo.com",
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the engine in traces and settings.
func (e *DuckDuckGoAPI) Name() string { return "DuckDuckGo API" }

type apiTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []apiTopic `json:"Topics"`
}

type apiResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []apiTopic `json:"RelatedTopics"`
}

// Search queries the instant-answer endpoint and flattens the abstract
// plus related topics into hits.
func (e *DuckDuckGoAPI) Search(ctx context.Context, query string, maxResults int) ([]Hit, error) {
	searchURL := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1", e.BaseURL, url.QueryEscape(query))

	resp, err := get(ctx, e.httpClient, e.userAgent, searchURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode API response: %w", err)
	}

	var hits []Hit
	if parsed.AbstractText != "" {
		hits = append(hits, Hit{
			Title:   parsed.Heading,
			Snippet: parsed.AbstractText,
			URL:     parsed.AbstractURL,
			Rank:    1,
		})
	}
	for _, topic := range flattenTopics(parsed.RelatedTopics) {
		if len(hits) >= maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		title := topic.Text
		snippet := topic.Text
		if i := strings.Index(topic.Text, " - "); i > 0 {
			title = topic.Text[:i]
			snippet = topic.Text[i+3:]
		}
		hits = append(hits, Hit{
			Title:   title,
			Snippet: snippet,
			URL:     topic.FirstURL,
			Rank:    len(hits) + 1,
		})
	}
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits, nil
}

func flattenTopics(topics []apiTopic) []apiTopic {
	var flat []apiTopic
	for _, topic := range topics {
		if len(topic.Topics) > 0 {
			flat = append(flat, flattenTopics(topic.Topics)...)
			continue
		}
		flat = append(flat, topic)
	}
	return flat
}

// DuckDuckGoHTML scrapes the DuckDuckGo HTML endpoint.
type DuckDuckGoHTML struct {
	BaseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewDuckDuckGoHTML creates the DuckDuckGo HTML scraping engine.
func NewDuckDuckGoHTML(timeout time.Duration, userAgent string) *DuckDuckGoHTML {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &DuckDuckGoHTML{
		BaseURL:    "https://html.duckduckgo.com",
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the engine in traces and settings.
func (e *DuckDuckGoHTML) Name() string { return "DuckDuckGo" }

// Search fetches the result page and parses result containers in
// document order. Individual results that fail to parse are skipped.
func (e *DuckDuckGoHTML) Search(ctx context.Context, query string, maxResults int) ([]Hit, error) {
	searchURL := fmt.Sprintf("%s/html/?q=%s", e.BaseURL, url.QueryEscape(query))

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
	doc.Find("div.result__body").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())
		if title == "" && href == "" {
			return true
		}
		hits = append(hits, Hit{
			Title:   title,
			Snippet: snippet,
			URL:     href,
			Rank:    len(hits) + 1,
		})
		return len(hits) < maxResults
	})
	return hits, nil
}
