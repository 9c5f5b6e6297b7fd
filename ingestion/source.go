package ingestion

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// Source is an extraction input: either a filesystem path or an open reader
// carrying a name hint. The pipeline never retains the reader after
// extraction completes.
type Source struct {
	// Name is used for format detection when reading from a stream.
	Name string
	// Path points at a file on disk. Takes effect when Reader is nil.
	Path string
	// Reader supplies the raw payload, binary or text.
	Reader io.Reader
}

// FromPath builds a Source backed by a file on disk.
func FromPath(path string) Source {
	return Source{Name: path, Path: path}
}

// FromReader builds a Source backed by an open stream. The name hint is
// required for format detection.
func FromReader(name string, r io.Reader) Source {
	return Source{Name: name, Reader: r}
}

func (s Source) displayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Path
}

// data slurps the raw payload. File handles opened here are closed before
// returning, on success and failure alike.
func (s Source) data() ([]byte, error) {
	if s.Reader != nil {
		data, err := io.ReadAll(s.Reader)
		if err != nil {
			return nil, fmt.Errorf("read stream: %w", err)
		}
		return data, nil
	}
	if s.Path == "" {
		return nil, fmt.Errorf("source has neither reader nor path")
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// decodePermissive converts raw bytes to a UTF-8 string, dropping invalid
// byte sequences instead of failing. Mirrors lenient text decoding so a
// corrupt upload degrades rather than errors.
func decodePermissive(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}

	out := make([]rune, 0, len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			data = data[1:]
			continue
		}
		out = append(out, r)
		data = data[size:]
	}
	return string(out)
}
