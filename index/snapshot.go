package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const snapshotFileName = "index.db"

// saveSnapshot writes the full store content into <dir>/index.db, replacing
// any previous snapshot in that directory.
func saveSnapshot(ctx context.Context, dir string, chunks []Chunk, vectors [][]float32) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	path := filepath.Join(dir, snapshotFileName)
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open snapshot database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		metadata TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create snapshot schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clear previous snapshot: %w", err)
	}

	for i := range chunks {
		metadataJSON, marshalErr := json.Marshal(chunks[i].Metadata)
		if marshalErr != nil {
			err = fmt.Errorf("marshal chunk metadata: %w", marshalErr)
			return err
		}
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO chunks (id, content, embedding, metadata) VALUES (?, ?, ?, ?)",
			chunks[i].ID, chunks[i].Text, float32SliceToBytes(vectors[i]), string(metadataJSON),
		); err != nil {
			return fmt.Errorf("insert snapshot chunk: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// loadSnapshot reads a snapshot previously written by saveSnapshot.
func loadSnapshot(ctx context.Context, dir string) ([]Chunk, [][]float32, error) {
	path := filepath.Join(dir, snapshotFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, nil, fmt.Errorf("snapshot not found: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT id, content, embedding, metadata FROM chunks")
	if err != nil {
		return nil, nil, fmt.Errorf("query snapshot chunks: %w", err)
	}
	defer rows.Close()

	var (
		chunks  []Chunk
		vectors [][]float32
	)
	for rows.Next() {
		var (
			chunk        Chunk
			blob         []byte
			metadataJSON string
		)
		if err := rows.Scan(&chunk.ID, &chunk.Text, &blob, &metadataJSON); err != nil {
			return nil, nil, fmt.Errorf("scan snapshot chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, nil, fmt.Errorf("unmarshal chunk metadata: %w", err)
		}
		chunks = append(chunks, chunk)
		vectors = append(vectors, bytesToFloat32Slice(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate snapshot chunks: %w", err)
	}

	return chunks, vectors, nil
}

func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
