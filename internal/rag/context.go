package rag

import (
	"fmt"
	"strings"

	"github.com/ollamaface/cli/internal/websearch"
)

// Placeholder text emitted when a requested source returned nothing, so
// the model is told explicitly that the source came up empty.
const (
	noKBResults  = "No relevant results were found in the local knowledge base."
	noWebResults = "No web search results were found."
)

// ContextBuilder merges retrieval output, web search output, and the
// user message into the outbound prompt.
type ContextBuilder struct{}

// NewContextBuilder creates a new context builder
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{}
}

// BuildPrompt assembles the prompt for one turn. A nil retrieval or
// search argument means that source was not requested and its section is
// omitted; a non-nil but empty one keeps the section with a placeholder.
// When neither source was requested the prompt is the raw user message.
func (cb *ContextBuilder) BuildPrompt(userMessage string, retrieval *RetrievalResult, search *websearch.Response) string {
	if retrieval == nil && search == nil {
		return userMessage
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Question: %s", userMessage))
	parts = append(parts, "")

	if retrieval != nil {
		parts = append(parts, "Local Knowledge Context:")
		parts = append(parts, cb.formatChunks(retrieval))
		parts = append(parts, "")
	}

	if search != nil {
		parts = append(parts, "Web Search Results:")
		parts = append(parts, cb.formatHits(search))
		parts = append(parts, "")
	}

	parts = append(parts, "Please answer the question based on the context above. "+
		"If the context is not relevant or does not contain the necessary information, "+
		"use your general knowledge to provide the best answer possible.")

	return strings.Join(parts, "\n")
}

// formatChunks joins retrieved chunk texts with their source documents.
func (cb *ContextBuilder) formatChunks(retrieval *RetrievalResult) string {
	if len(retrieval.Chunks) == 0 {
		return noKBResults
	}

	var parts []string
	for _, scored := range retrieval.Chunks {
		parts = append(parts, fmt.Sprintf("[source: %s] %s", scored.Chunk.SourceFile, scored.Chunk.Text))
	}
	return strings.Join(parts, "\n\n")
}

// formatHits renders search hits in the "Result N" transcript form.
func (cb *ContextBuilder) formatHits(search *websearch.Response) string {
	if len(search.Hits) == 0 {
		return noWebResults
	}

	var parts []string
	for _, hit := range search.Hits {
		parts = append(parts, fmt.Sprintf("Result %d:\nTitle: %s\nSnippet: %s\nURL: %s",
			hit.Rank, hit.Title, hit.Snippet, hit.URL))
	}
	return strings.Join(parts, "\n\n")
}
