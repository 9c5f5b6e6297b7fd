package ingestion

import (
	"errors"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"report.pdf":        FormatPDF,
		"memo.docx":         FormatDocx,
		"budget.xlsx":       FormatXlsx,
		"deck.ppt":          FormatPPT,
		"deck.pptx":         FormatPPT,
		"page.html":         FormatHTML,
		"script.py":         FormatPython,
		"data.json":         FormatJSON,
		"notes.txt":         FormatText,
		"analysis.ipynb":    FormatNotebook,
		"paper.tex":         FormatLaTeX,
		"readme.md":         FormatMarkdown,
		"UPPER.PDF":         FormatPDF,
		"archive.tar.docx":  FormatDocx,
		"/tmp/notes/a.html": FormatHTML,
	}

	for name, want := range cases {
		got, err := DetectFormat(name)
		if err != nil {
			t.Errorf("DetectFormat(%q) returned error: %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("DetectFormat(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestDetectFormatMissingExtension(t *testing.T) {
	_, err := DetectFormat("Makefile")
	var detectErr *DetectionError
	if !errors.As(err, &detectErr) {
		t.Fatalf("expected DetectionError, got %v", err)
	}
}

func TestDetectFormatUnsupported(t *testing.T) {
	_, err := DetectFormat("image.png")
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
	if unsupported.Extension != ".png" {
		t.Errorf("Extension = %q, want %q", unsupported.Extension, ".png")
	}
}
