package ingestion

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates page-level text in page order, one page per line.
// The pdf library panics on some malformed files; those are caught and
// surfaced as a regular ExtractionError.
func extractPDF(data []byte) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			content = ""
			err = extractionErrf(FormatPDF, "pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", extractionErr(FormatPDF, fmt.Errorf("open pdf: %w", err))
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			return "", extractionErr(FormatPDF, fmt.Errorf("extract page %d: %w", i, pageErr))
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}
