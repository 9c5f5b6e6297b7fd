package ingestion

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// extractMarkdown renders the document to HTML and strips the markup through
// the html extractor, leaving plain text.
func extractMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(content), &buf); err != nil {
		return "", extractionErr(FormatMarkdown, fmt.Errorf("render markdown: %w", err))
	}

	text, err := extractHTML(buf.String())
	if err != nil {
		return "", extractionErr(FormatMarkdown, err)
	}
	return text, nil
}
