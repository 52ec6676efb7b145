package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/ollamaface/cli/internal/kb"
)

// Retriever handles RAG retrieval using vector similarity search
type Retriever struct {
	store    *kb.Store
	embedder Embedder
	topK     int
}

// Embedder converts a query into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewRetriever creates a new RAG retriever
func NewRetriever(store *kb.Store, embedder Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = 3 // Default
	}
	return &Retriever{
		store:    store,
		embedder: embedder,
		topK:     topK,
	}
}

// ScoredChunk pairs a retrieved chunk with its distance from the query,
// smaller meaning nearer.
type ScoredChunk struct {
	Chunk    kb.Chunk
	Distance float32
}

// RetrievalResult contains retrieved chunks and timing
type RetrievalResult struct {
	Chunks  []ScoredChunk
	Elapsed time.Duration
}

// Retrieve finds the chunks nearest to the query, ordered nearest first.
// An absent or empty index yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) (*RetrievalResult, error) {
	start := time.Now()

	snap := r.store.Snapshot()
	if snap.Empty() {
		return &RetrievalResult{Elapsed: time.Since(start)}, nil
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	matches, err := snap.Index.Search(queryVec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	chunks := make([]ScoredChunk, 0, len(matches))
	for _, match := range matches {
		chunks = append(chunks, ScoredChunk{
			Chunk:    snap.Chunks[match.ID],
			Distance: match.Distance,
		})
	}

	return &RetrievalResult{
		Chunks:  chunks,
		Elapsed: time.Since(start),
	}, nil
}
