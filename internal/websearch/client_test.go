package websearch

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine is a canned engine for exercising the fallback chain
// without any HTTP.
type stubEngine struct {
	name  string
	hits  []Hit
	err   error
	calls int
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Search(context.Context, string, int) ([]Hit, error) {
	s.calls++
	return s.hits, s.err
}

func TestSearch_FirstEngineWins(t *testing.T) {
	first := &stubEngine{name: "first", hits: []Hit{{Title: "hit", Rank: 1}}}
	second := &stubEngine{name: "second"}
	client := NewClient(first, second)

	resp, err := client.Search(context.Background(), "query", 3)
	require.NoError(t, err)

	assert.Equal(t, "first", resp.Engine)
	require.Len(t, resp.Hits, 1)
	assert.Zero(t, second.calls, "later engines must not run after a success")
}

func TestSearch_FallsBackOnFailure(t *testing.T) {
	first := &stubEngine{name: "first", err: &StatusError{Code: 403}}
	second := &stubEngine{name: "second", hits: []Hit{{Title: "rescued", Rank: 1}}}
	client := NewClient(first, second)

	resp, err := client.Search(context.Background(), "query", 3)
	require.NoError(t, err)

	assert.Equal(t, "second", resp.Engine)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)

	assert.Equal(t, 1, strings.Count(resp.Trace, "failed:"))
	assert.Contains(t, resp.Trace, "Falling back to next engine")
	assert.Contains(t, resp.Trace, "second returned 1 results")
}

// Zero hits from an engine that answered successfully is a terminal
// outcome, not a fallback trigger.
func TestSearch_EmptySuccessDoesNotFallBack(t *testing.T) {
	first := &stubEngine{name: "first"}
	second := &stubEngine{name: "second", hits: []Hit{{Title: "never seen", Rank: 1}}}
	client := NewClient(first, second)

	resp, err := client.Search(context.Background(), "query", 3)
	require.NoError(t, err)

	assert.Equal(t, "first", resp.Engine)
	assert.Empty(t, resp.Hits)
	assert.Zero(t, second.calls)
	assert.Contains(t, resp.Trace, "No search results found")
}

func TestSearch_AllEnginesFail(t *testing.T) {
	engines := []Engine{
		&stubEngine{name: "a", err: &StatusError{Code: 500}},
		&stubEngine{name: "b", err: &StatusError{Code: 502}},
		&stubEngine{name: "c", err: &StatusError{Code: 503}},
	}
	client := NewClient(engines...)

	resp, err := client.Search(context.Background(), "query", 3)
	require.Error(t, err)

	// The last engine's failure is the one surfaced.
	assert.Contains(t, err.Error(), "all search engines failed")
	assert.Contains(t, err.Error(), "503")

	require.NotNil(t, resp)
	assert.Equal(t, 3, strings.Count(resp.Trace, "failed:"))
	assert.Equal(t, 2, strings.Count(resp.Trace, "Falling back to next engine"))
}

func TestSearch_NoEngines(t *testing.T) {
	client := NewClient()

	resp, err := client.Search(context.Background(), "query", 3)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Contains(t, resp.Trace, "No search engines configured")
}

func TestSearch_TraceHeaderAndResults(t *testing.T) {
	engine := &stubEngine{name: "only", hits: []Hit{
		{Title: "Alpha", Rank: 1},
		{Title: "Beta", Rank: 2},
	}}
	client := NewClient(engine)

	resp, err := client.Search(context.Background(), "golang testing", 5)
	require.NoError(t, err)

	assert.Contains(t, resp.Trace, `Search query: "golang testing"`)
	assert.Contains(t, resp.Trace, "Max results: 5")
	assert.Contains(t, resp.Trace, "Result 1 - Alpha")
	assert.Contains(t, resp.Trace, "Result 2 - Beta")
	assert.Contains(t, resp.Trace, "Elapsed:")
}
