// Package ingestion converts uploaded documents of various formats into plain
// text and splits that text into overlapping chunks suitable for embedding.
package ingestion

import (
	"path/filepath"
	"strings"
)

// Format enumerates the document formats the pipeline can extract.
type Format string

const (
	// FormatPDF represents PDF documents.
	FormatPDF Format = "pdf"
	// FormatDocx represents Word (OOXML) documents.
	FormatDocx Format = "docx"
	// FormatXlsx represents Excel (OOXML) workbooks.
	FormatXlsx Format = "xlsx"
	// FormatPPT represents PowerPoint presentations (.ppt and .pptx share it).
	FormatPPT Format = "ppt"
	// FormatHTML represents HTML pages.
	FormatHTML Format = "html"
	// FormatPython represents Python source files.
	FormatPython Format = "python"
	// FormatJSON represents JSON documents.
	FormatJSON Format = "json"
	// FormatText represents plain text files.
	FormatText Format = "text"
	// FormatNotebook represents Jupyter notebooks.
	FormatNotebook Format = "notebook"
	// FormatLaTeX represents LaTeX sources.
	FormatLaTeX Format = "latex"
	// FormatMarkdown represents Markdown documents.
	FormatMarkdown Format = "markdown"
)

// DetectFormat maps a file name (or path) to its Format using the extension,
// compared case-insensitively. It never guesses: a missing extension yields a
// *DetectionError and a foreign extension an *UnsupportedFormatError.
// Content is never sniffed.
func DetectFormat(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "", &DetectionError{Name: name}
	}

	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDocx, nil
	case ".xlsx":
		return FormatXlsx, nil
	case ".ppt", ".pptx":
		return FormatPPT, nil
	case ".html":
		return FormatHTML, nil
	case ".py":
		return FormatPython, nil
	case ".json":
		return FormatJSON, nil
	case ".txt":
		return FormatText, nil
	case ".ipynb":
		return FormatNotebook, nil
	case ".tex":
		return FormatLaTeX, nil
	case ".md":
		return FormatMarkdown, nil
	default:
		return "", &UnsupportedFormatError{Extension: ext}
	}
}
