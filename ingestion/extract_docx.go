package ingestion

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// extractDocx reads word/document.xml from the OOXML archive and emits one
// line per paragraph, in document order. Tables, headers and footers are not
// extracted; that omission matches the paragraph-only contract of the
// pipeline, not a parsing gap.
func extractDocx(data []byte) (string, error) {
	rc, err := openZipEntry(data, "word/document.xml")
	if err != nil {
		return "", extractionErr(FormatDocx, err)
	}
	defer rc.Close()

	paragraphs, err := collectOOXMLParagraphs(rc, "p", "t")
	if err != nil {
		return "", extractionErr(FormatDocx, fmt.Errorf("parse document.xml: %w", err))
	}

	return strings.Join(paragraphs, "\n"), nil
}

// openZipEntry opens one named file inside a ZIP payload. The caller closes
// the returned reader.
func openZipEntry(data []byte, name string) (io.ReadCloser, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", name, err)
			}
			return rc, nil
		}
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

// collectOOXMLParagraphs walks an OOXML part, grouping the character data of
// text elements (local name textEl) under each paragraph element (local name
// paraEl) into one string per paragraph.
func collectOOXMLParagraphs(r io.Reader, paraEl, textEl string) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inPara     bool
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case paraEl:
				inPara = true
				current.Reset()
			case textEl:
				inText = inPara
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case textEl:
				inText = false
			case paraEl:
				if inPara {
					paragraphs = append(paragraphs, current.String())
					inPara = false
				}
			}
		}
	}

	return paragraphs, nil
}
