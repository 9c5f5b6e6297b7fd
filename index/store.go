// Package index wraps a vector store, an embedder and the chunking
// parameters into one index lifecycle: insert, query, flush, save, load.
package index

import (
	"context"
	"errors"
	"math"
)

// Chunk is one indexed unit of text.
type Chunk struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// ScoredChunk is a query hit with its similarity score (higher is closer).
type ScoredChunk struct {
	Chunk
	Score float64
}

// Store holds embedded chunks and answers similarity queries.
type Store interface {
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredChunk, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// Snapshotter is implemented by stores whose full content can be exported
// and replaced, which is what directory snapshots need. Remote stores manage
// their own durability and do not implement it.
type Snapshotter interface {
	Dump(ctx context.Context) ([]Chunk, [][]float32, error)
	Replace(ctx context.Context, chunks []Chunk, vectors [][]float32) error
}

// ErrSnapshotUnsupported is returned by Save and Load when the configured
// store cannot be snapshotted to a directory.
var ErrSnapshotUnsupported = errors.New("configured store does not support directory snapshots")

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
