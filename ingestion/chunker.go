package ingestion

// ChunkText splits content into fixed-size windows of size characters where
// consecutive windows overlap by exactly overlap characters; the final window
// may be shorter. Windows are cut at rune boundaries, so every chunk is
// well-formed text. Empty content yields no chunks. Invalid parameters fail
// with a *ConfigError and produce no partial output.
func ChunkText(content string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, &ConfigError{Reason: "chunk size must be a positive integer"}
	}
	if overlap < 0 {
		return nil, &ConfigError{Reason: "chunk overlap must be a non-negative integer"}
	}
	if overlap >= size {
		return nil, &ConfigError{Reason: "chunk overlap must be less than chunk size"}
	}

	runes := []rune(content)
	length := len(runes)
	if length == 0 {
		return nil, nil
	}

	chunks := make([]string, 0, length/(size-overlap)+1)
	start := 0
	for {
		end := start + size
		if end > length {
			end = length
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == length {
			return chunks, nil
		}
		start = end - overlap
	}
}
