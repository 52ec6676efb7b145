// Package vectorindex provides the nearest-neighbor index the knowledge
// base is built on: a flat L2 index over chunk embeddings with binary
// persistence. Callers treat the index file as an opaque blob.
package vectorindex

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Encoder converts free text into an embedding vector.
type Encoder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Result is a single nearest-neighbor match: the position of the vector
// in insertion order and its squared L2 distance from the query.
type Result struct {
	ID       int
	Distance float32
}

// Index is a flat nearest-neighbor index. Vectors are searched
// exhaustively by squared L2 distance, nearest first.
type Index struct {
	dim     int
	vectors [][]float32
}

// New creates an empty index for vectors of the given dimension.
func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vector dimension must be greater than zero, got %d", dim)
	}
	return &Index{dim: dim}, nil
}

// Dimension returns the vector dimension the index was created with.
func (ix *Index) Dimension() int { return ix.dim }

// Len returns the number of vectors in the index.
func (ix *Index) Len() int { return len(ix.vectors) }

// Add appends vectors to the index in insertion order.
func (ix *Index) Add(vectors ...[]float32) error {
	for _, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("vector dimension mismatch: index holds %d, got %d", ix.dim, len(v))
		}
		ix.vectors = append(ix.vectors, v)
	}
	return nil
}

// Search returns up to k nearest vectors to the query, ordered by
// ascending distance. k is clamped to the number of stored vectors.
func (ix *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query dimension mismatch: index holds %d, got %d", ix.dim, len(query))
	}
	if k <= 0 || len(ix.vectors) == 0 {
		return nil, nil
	}
	if k > len(ix.vectors) {
		k = len(ix.vectors)
	}

	results := make([]Result, 0, len(ix.vectors))
	for i, v := range ix.vectors {
		results = append(results, Result{ID: i, Distance: squaredL2(query, v)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	return results[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// blob is the on-disk representation of an index.
type blob struct {
	Dim     int
	Vectors [][]float32
}

// Save writes the index to path as a binary blob. The write goes to a
// temporary file first and is moved into place so readers never observe
// a partial index file.
func (ix *Index) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(blob{Dim: ix.dim, Vectors: ix.vectors}); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move index into place: %w", err)
	}
	return nil
}

// Load reads an index previously written by Save. A missing file is not
// an error: it returns (nil, nil) so callers can fall back to a rebuild.
func Load(path string) (*Index, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	var b blob
	if err := gob.NewDecoder(file).Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode index file: %w", err)
	}
	if b.Dim <= 0 {
		return nil, fmt.Errorf("index file is corrupt: dimension %d", b.Dim)
	}
	return &Index{dim: b.Dim, vectors: b.Vectors}, nil
}
