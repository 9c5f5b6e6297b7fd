package index

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Requires a reachable Postgres with the pgvector extension. Set
// POSTGRES_TEST_DSN to run.
func TestPostgresStoreLifecycle(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewPostgresStore(ctx, dsn, 3)
	if err != nil {
		t.Fatalf("NewPostgresStore returned error: %v", err)
	}
	defer store.Close()

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}

	// The chunks table keys on UUIDs, matching what the manager generates.
	catsID := uuid.New().String()
	chunks := []Chunk{
		{ID: catsID, Text: "about cats", Metadata: map[string]string{"topic": "cats"}},
		{ID: uuid.New().String(), Text: "about dogs", Metadata: map[string]string{"topic": "dogs"}},
	}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}}
	if err := store.Upsert(ctx, chunks, vectors); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("Count = %d, want 2", count)
	}

	results, err := store.Search(ctx, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 || results[0].Chunk.ID != catsID {
		t.Fatalf("results = %+v, want the cats chunk first", results)
	}
	if results[0].Chunk.Metadata["topic"] != "cats" {
		t.Errorf("metadata = %v", results[0].Chunk.Metadata)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
}
