// Package kb manages the local knowledge base: a folder of plain-text
// documents, a metadata record per document, and the vector index built
// from their chunks.
package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ollamaface/cli/internal/vectorindex"
)

// TimeLayout is the timestamp format used in metadata records.
const TimeLayout = "2006-01-02 15:04:05"

// Chunk is one overlapping word window of a tracked document.
type Chunk struct {
	ID         uuid.UUID
	Text       string
	SourceFile string
	ChunkIndex int
}

// DocumentMeta describes one tracked document.
type DocumentMeta struct {
	Filename   string `json:"filename"`
	LastLoaded string `json:"last_loaded"`
}

// Snapshot is a fully-built view of the knowledge base. Snapshots are
// immutable; a rebuild produces a new one and swaps it in atomically.
type Snapshot struct {
	Index  *vectorindex.Index
	Chunks []Chunk
}

// Empty reports whether the snapshot holds no indexed chunks.
func (s *Snapshot) Empty() bool {
	return s == nil || s.Index == nil || len(s.Chunks) == 0
}

// Store owns the documents folder, the metadata map, and the index file.
// Writers (rebuild, add, remove) are serialized; readers always see a
// complete snapshot, old or new.
type Store struct {
	docsDir   string
	indexPath string
	metaPath  string
	embedder  vectorindex.Encoder
	chunkSize int
	overlap   int

	mu   sync.Mutex // serializes all mutations
	snap atomic.Pointer[Snapshot]
}

// NewStore creates a knowledge base store. The documents folder is
// created if missing; chunking parameters are validated up front.
func NewStore(docsDir, indexPath, metaPath string, embedder vectorindex.Encoder, chunkSize, overlap int) (*Store, error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk size %d, overlap %d", ErrInvalidChunking, chunkSize, overlap)
	}
	if err := os.MkdirAll(docsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create documents folder: %w", err)
	}
	return &Store{
		docsDir:   docsDir,
		indexPath: indexPath,
		metaPath:  metaPath,
		embedder:  embedder,
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

// Snapshot returns the current fully-built snapshot, or nil if the index
// has not been built or loaded yet.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Rebuild chunks every tracked document, embeds every chunk, and swaps
// in a fresh snapshot. The previous snapshot stays visible until the new
// one is complete.
func (s *Store) Rebuild(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked(ctx)
}

func (s *Store) rebuildLocked(ctx context.Context) (*Snapshot, error) {
	chunks, err := s.chunkFolder()
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		snap := &Snapshot{}
		s.snap.Store(snap)
		return snap, nil
	}

	var index *vectorindex.Index
	for _, chunk := range chunks {
		vec, err := s.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed %s chunk %d: %w", chunk.SourceFile, chunk.ChunkIndex, err)
		}
		if index == nil {
			index, err = vectorindex.New(len(vec))
			if err != nil {
				return nil, err
			}
		}
		if err := index.Add(vec); err != nil {
			return nil, fmt.Errorf("failed to index %s chunk %d: %w", chunk.SourceFile, chunk.ChunkIndex, err)
		}
	}

	if err := index.Save(s.indexPath); err != nil {
		return nil, err
	}

	snap := &Snapshot{Index: index, Chunks: chunks}
	s.snap.Store(snap)
	return snap, nil
}

// LoadExisting loads the persisted index file and regenerates chunk data
// from the documents folder. If the file is missing, or the folder no
// longer matches the persisted index, a full rebuild runs instead.
func (s *Store) LoadExisting(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, err := vectorindex.Load(s.indexPath)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return s.rebuildLocked(ctx)
	}

	chunks, err := s.chunkFolder()
	if err != nil {
		return nil, err
	}
	if len(chunks) != index.Len() {
		// Documents changed since the index was written.
		return s.rebuildLocked(ctx)
	}

	snap := &Snapshot{Index: index, Chunks: chunks}
	s.snap.Store(snap)
	return snap, nil
}

// AddDocument copies the file into the documents folder, records its
// metadata, and rebuilds the index.
func (s *Store) AddDocument(ctx context.Context, path string) (DocumentMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filename := filepath.Base(path)
	destPath := filepath.Join(s.docsDir, filename)
	if err := copyFile(path, destPath); err != nil {
		return DocumentMeta{}, fmt.Errorf("failed to copy document: %w", err)
	}

	meta, err := s.loadMetadata()
	if err != nil {
		return DocumentMeta{}, err
	}
	entry := DocumentMeta{
		Filename:   filename,
		LastLoaded: time.Now().Format(TimeLayout),
	}
	meta[destPath] = entry
	if err := s.saveMetadata(meta); err != nil {
		return DocumentMeta{}, err
	}

	if _, err := s.rebuildLocked(ctx); err != nil {
		return DocumentMeta{}, err
	}
	return entry, nil
}

// RemoveDocument deletes a tracked document, drops its metadata entry,
// and rebuilds the index. Untracked paths return ErrNotFound.
func (s *Store) RemoveDocument(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMetadata()
	if err != nil {
		return err
	}
	if _, ok := meta[path]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	delete(meta, path)
	if err := s.saveMetadata(meta); err != nil {
		return err
	}

	_, err = s.rebuildLocked(ctx)
	return err
}

// Documents returns the metadata map of all tracked documents.
func (s *Store) Documents() (map[string]DocumentMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadMetadata()
}

// chunkFolder chunks every .txt document in the folder, in filename
// order so repeated rebuilds of an unchanged folder are identical.
func (s *Store) chunkFolder() ([]Chunk, error) {
	entries, err := os.ReadDir(s.docsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents folder: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var chunks []Chunk
	for _, name := range names {
		raw, err := os.ReadFile(filepath.Join(s.docsDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read document %s: %w", name, err)
		}
		texts, err := SplitWords(string(raw), s.chunkSize, s.overlap)
		if err != nil {
			return nil, err
		}
		for i, text := range texts {
			chunks = append(chunks, Chunk{
				ID:         uuid.New(),
				Text:       text,
				SourceFile: name,
				ChunkIndex: i,
			})
		}
	}
	return chunks, nil
}

// loadMetadata reads the metadata map. A missing file yields an empty
// map; a corrupt file is an error so tracked documents are not silently
// forgotten.
func (s *Store) loadMetadata() (map[string]DocumentMeta, error) {
	data, err := os.ReadFile(s.metaPath)
	if os.IsNotExist(err) {
		return map[string]DocumentMeta{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	meta := map[string]DocumentMeta{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("metadata file is corrupt: %w", err)
	}
	return meta, nil
}

func (s *Store) saveMetadata(meta map[string]DocumentMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.metaPath), ".metadata-*")
	if err != nil {
		return fmt.Errorf("failed to create temp metadata file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp metadata file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.metaPath); err != nil {
		return fmt.Errorf("failed to move metadata into place: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
