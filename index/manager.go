package index

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/fmartel/ragdesk/embeddings"
	"github.com/fmartel/ragdesk/ingestion"
)

const (
	// DefaultChunkSize and DefaultChunkOverlap match the sizes the index was
	// tuned with; config can override both.
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 50
)

// Options tunes a Manager.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	// IndicesRoot is the directory that holds named snapshot directories.
	IndicesRoot string
}

// Manager ties chunking, embedding and a vector store into one index
// lifecycle. Named snapshots live under IndicesRoot, one directory each.
type Manager struct {
	store        Store
	embedder     embeddings.Embedder
	logger       *log.Logger
	chunkSize    int
	chunkOverlap int
	indicesRoot  string
}

func NewManager(store Store, embedder embeddings.Embedder, logger *log.Logger, opts Options) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = DefaultChunkOverlap
	}
	if opts.IndicesRoot == "" {
		opts.IndicesRoot = "indices"
	}

	return &Manager{
		store:        store,
		embedder:     embedder,
		logger:       logger,
		chunkSize:    opts.ChunkSize,
		chunkOverlap: opts.ChunkOverlap,
		indicesRoot:  opts.IndicesRoot,
	}
}

// InsertText chunks, embeds and stores a text with its metadata, returning
// the number of chunks indexed. Empty text indexes nothing.
func (m *Manager) InsertText(ctx context.Context, text string, metadata map[string]string) (int, error) {
	if m.embedder == nil {
		return 0, fmt.Errorf("embedder not configured")
	}

	chunks, err := ingestion.ChunkText(text, m.chunkSize, m.chunkOverlap)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := m.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("generate embeddings: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: have %d chunks, %d embeddings", len(chunks), len(vectors))
	}

	records := make([]Chunk, len(chunks))
	for i, text := range chunks {
		// Each record gets its own copy so chunks stay self-contained once
		// they leave the manager.
		meta := make(map[string]string, len(metadata))
		for k, v := range metadata {
			meta[k] = v
		}
		records[i] = Chunk{
			ID:       uuid.New().String(),
			Text:     text,
			Metadata: meta,
		}
	}

	if err := m.store.Upsert(ctx, records, vectors); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	return len(records), nil
}

// InsertDocument indexes an extracted document. The document's file metadata
// is merged over the supplied map.
func (m *Manager) InsertDocument(ctx context.Context, doc *ingestion.Document, metadata map[string]string) (int, error) {
	if doc == nil {
		return 0, fmt.Errorf("document is nil")
	}
	merged := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		merged[k] = v
	}
	merged["format"] = string(doc.Format)
	return m.InsertText(ctx, doc.Content, merged)
}

// Query embeds the question and returns the topK most similar chunks.
func (m *Manager) Query(ctx context.Context, query string, topK int) ([]ScoredChunk, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	vectors, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vectors")
	}

	results, err := m.store.Search(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}

// Flush resets the index to empty.
func (m *Manager) Flush(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	m.logger.Println("index flushed")
	return nil
}

// Count reports how many chunks the live index holds.
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.store.Count(ctx)
}

// Save snapshots the live index into the named directory under the indices
// root. Only snapshottable stores support it.
func (m *Manager) Save(ctx context.Context, name string) error {
	dir, err := m.snapshotDir(name)
	if err != nil {
		return err
	}
	snap, ok := m.store.(Snapshotter)
	if !ok {
		return ErrSnapshotUnsupported
	}

	chunks, vectors, err := snap.Dump(ctx)
	if err != nil {
		return fmt.Errorf("dump store: %w", err)
	}
	if err := saveSnapshot(ctx, dir, chunks, vectors); err != nil {
		return err
	}
	m.logger.Printf("saved index %q (%d chunks)", name, len(chunks))
	return nil
}

// Load replaces the live index with the named snapshot.
func (m *Manager) Load(ctx context.Context, name string) error {
	dir, err := m.snapshotDir(name)
	if err != nil {
		return err
	}
	snap, ok := m.store.(Snapshotter)
	if !ok {
		return ErrSnapshotUnsupported
	}

	chunks, vectors, err := loadSnapshot(ctx, dir)
	if err != nil {
		return err
	}
	if err := snap.Replace(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("replace store content: %w", err)
	}
	m.logger.Printf("loaded index %q (%d chunks)", name, len(chunks))
	return nil
}

// ListIndices returns the names of saved snapshots, sorted.
func (m *Manager) ListIndices() ([]string, error) {
	entries, err := os.ReadDir(m.indicesRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read indices root: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// snapshotDir validates a snapshot name and resolves it under the root.
// Names must be plain directory names; path traversal is rejected.
func (m *Manager) snapshotDir(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("index name is required")
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid index name %q", name)
	}
	return filepath.Join(m.indicesRoot, name), nil
}
