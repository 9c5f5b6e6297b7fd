package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// extractJSON parses the document and re-serializes it with stable 4-space
// indentation. Formatting is canonicalized; all key/value data survives.
func extractJSON(content string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", extractionErr(FormatJSON, fmt.Errorf("parse json: %w", err))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return "", extractionErr(FormatJSON, fmt.Errorf("serialize json: %w", err))
	}

	// Encoder appends a trailing newline; the content contract is the
	// indented document alone.
	out := buf.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return string(out), nil
}
