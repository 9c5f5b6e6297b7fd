package ingestion

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slideEntryPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPPTX walks slides in presentation order and emits the text runs of
// every text-bearing shape, one paragraph per line. Legacy binary .ppt files
// are not ZIP archives and fail in the archive reader with the same
// ExtractionError contract as any other malformed payload.
func extractPPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", extractionErr(FormatPPT, fmt.Errorf("open archive: %w", err))
	}

	type slideEntry struct {
		number int
		name   string
	}
	var slides []slideEntry
	for _, f := range zr.File {
		m := slideEntryPattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, convErr := strconv.Atoi(m[1])
		if convErr != nil {
			continue
		}
		slides = append(slides, slideEntry{number: n, name: f.Name})
	}
	if len(slides) == 0 {
		return "", extractionErrf(FormatPPT, "no slides found in archive")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var lines []string
	for _, slide := range slides {
		rc, openErr := openZipEntry(data, slide.name)
		if openErr != nil {
			return "", extractionErr(FormatPPT, openErr)
		}
		// DrawingML paragraphs are a:p elements with a:t text runs, the same
		// paragraph/run shape as WordprocessingML.
		paragraphs, parseErr := collectOOXMLParagraphs(rc, "p", "t")
		rc.Close()
		if parseErr != nil {
			return "", extractionErr(FormatPPT, fmt.Errorf("parse %s: %w", slide.name, parseErr))
		}
		lines = append(lines, paragraphs...)
	}

	return strings.Join(lines, "\n"), nil
}
