package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollamaface/cli/internal/kb"
)

// lengthEmbedder embeds text as its word count, so nearest-neighbor
// order in tests is obvious from the fixtures.
type lengthEmbedder struct {
	err error
}

func (e *lengthEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(strings.Fields(text)))}, nil
}

func builtStore(t *testing.T, docs map[string]string) *kb.Store {
	t.Helper()
	dir := t.TempDir()
	docsDir := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0755))
	for name, text := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(docsDir, name), []byte(text), 0644))
	}

	store, err := kb.NewStore(
		docsDir,
		filepath.Join(dir, "kb_index.bin"),
		filepath.Join(dir, "kb_documents.json"),
		&lengthEmbedder{},
		100, 20,
	)
	require.NoError(t, err)
	_, err = store.Rebuild(context.Background())
	require.NoError(t, err)
	return store
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	store := builtStore(t, nil)
	r := NewRetriever(store, &lengthEmbedder{}, 3)

	result, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, result.Chunks)
}

func TestRetrieve_NoSnapshotYet(t *testing.T) {
	dir := t.TempDir()
	store, err := kb.NewStore(
		filepath.Join(dir, "docs"),
		filepath.Join(dir, "kb_index.bin"),
		filepath.Join(dir, "kb_documents.json"),
		&lengthEmbedder{},
		100, 20,
	)
	require.NoError(t, err)

	r := NewRetriever(store, &lengthEmbedder{}, 3)
	result, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, result.Chunks)
}

func TestRetrieve_NearestFirst(t *testing.T) {
	// Word counts 2, 5 and 9; each document fits in one chunk.
	store := builtStore(t, map[string]string{
		"short.txt":  "two words",
		"medium.txt": "five words are in here",
		"long.txt":   "nine words sit inside this rather longer test document",
	})
	r := NewRetriever(store, &lengthEmbedder{}, 2)

	// Query embeds to 4, so medium (5) is nearest, then short (2).
	result, err := r.Retrieve(context.Background(), "a four word query")
	require.NoError(t, err)
	require.Len(t, result.Chunks, 2)

	assert.Equal(t, "medium.txt", result.Chunks[0].Chunk.SourceFile)
	assert.Equal(t, "short.txt", result.Chunks[1].Chunk.SourceFile)
	assert.LessOrEqual(t, result.Chunks[0].Distance, result.Chunks[1].Distance)
}

func TestRetrieve_TopKClamped(t *testing.T) {
	store := builtStore(t, map[string]string{"one.txt": "just three words"})
	r := NewRetriever(store, &lengthEmbedder{}, 5)

	result, err := r.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, result.Chunks, 1)
}

func TestRetrieve_EmbedderError(t *testing.T) {
	store := builtStore(t, map[string]string{"one.txt": "some indexed words"})
	boom := errors.New("embedding backend down")
	r := NewRetriever(store, &lengthEmbedder{err: boom}, 3)

	_, err := r.Retrieve(context.Background(), "query")
	assert.ErrorIs(t, err, boom)
}

func TestNewRetriever_DefaultTopK(t *testing.T) {
	store := builtStore(t, map[string]string{
		"a.txt": "one",
		"b.txt": "one two",
		"c.txt": "one two three",
		"d.txt": "one two three four",
	})
	r := NewRetriever(store, &lengthEmbedder{}, 0)

	result, err := r.Retrieve(context.Background(), "ab")
	require.NoError(t, err)
	assert.Len(t, result.Chunks, 3)
}
