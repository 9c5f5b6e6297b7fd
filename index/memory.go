package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is a brute-force cosine-similarity vector store. It backs the
// live index; durability comes from directory snapshots.
type MemoryStore struct {
	mu      sync.RWMutex
	chunks  []Chunk
	vectors [][]float32
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Upsert(_ context.Context, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.vectors) > 0 && len(vectors) > 0 && len(vectors[0]) != len(s.vectors[0]) {
		return fmt.Errorf("vector dimension mismatch: store has %d, got %d", len(s.vectors[0]), len(vectors[0]))
	}

	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *MemoryStore) Search(_ context.Context, vector []float32, limit int) ([]ScoredChunk, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]ScoredChunk, 0, len(s.chunks))
	for i := range s.chunks {
		results = append(results, ScoredChunk{
			Chunk: s.chunks[i],
			Score: cosineSimilarity(vector, s.vectors[i]),
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.vectors = nil
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *MemoryStore) Dump(_ context.Context) ([]Chunk, [][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]Chunk, len(s.chunks))
	copy(chunks, s.chunks)
	vectors := make([][]float32, len(s.vectors))
	for i, v := range s.vectors {
		vectors[i] = append([]float32(nil), v...)
	}
	return chunks, vectors, nil
}

func (s *MemoryStore) Replace(_ context.Context, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = chunks
	s.vectors = vectors
	return nil
}

var (
	_ Store       = (*MemoryStore)(nil)
	_ Snapshotter = (*MemoryStore)(nil)
)
