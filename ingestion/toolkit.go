package ingestion

// Document is the result of one extraction: plain text plus the format it
// came from. A new Document is produced per call; nothing mutates it.
type Document struct {
	Content string
	Format  Format
}

// Extract detects the format of src and runs the matching extractor.
// Detection failures propagate unchanged; extractor failures come back as
// *ExtractionError carrying the format and the original cause.
func Extract(src Source) (*Document, error) {
	format, err := DetectFormat(src.displayName())
	if err != nil {
		return nil, err
	}

	data, err := src.data()
	if err != nil {
		return nil, extractionErr(format, err)
	}

	var content string
	switch format {
	case FormatPDF:
		content, err = extractPDF(data)
	case FormatDocx:
		content, err = extractDocx(data)
	case FormatXlsx:
		content, err = extractXlsx(data)
	case FormatPPT:
		content, err = extractPPTX(data)
	case FormatHTML:
		content, err = extractHTML(decodePermissive(data))
	case FormatPython, FormatText:
		content, err = decodePermissive(data), nil
	case FormatJSON:
		content, err = extractJSON(decodePermissive(data))
	case FormatNotebook:
		content, err = extractNotebook(decodePermissive(data))
	case FormatLaTeX:
		content, err = extractLaTeX(decodePermissive(data)), nil
	case FormatMarkdown:
		content, err = extractMarkdown(decodePermissive(data))
	default:
		return nil, &UnsupportedFormatError{Extension: string(format)}
	}
	if err != nil {
		return nil, err
	}

	return &Document{Content: content, Format: format}, nil
}

// Toolkit pairs extraction with chunking over the most recently extracted
// document, for callers that want the read-then-chunk flow as one object.
// A failed extraction leaves the previously held document untouched.
// Not safe for concurrent use; callers needing parallel ingestion should use
// one Toolkit per session or call Extract directly.
type Toolkit struct {
	current *Document
}

func NewToolkit() *Toolkit {
	return &Toolkit{}
}

// GetContent extracts src and retains the resulting document.
func (t *Toolkit) GetContent(src Source) (string, error) {
	doc, err := Extract(src)
	if err != nil {
		return "", err
	}
	t.current = doc
	return doc.Content, nil
}

// Current returns the most recently extracted document, or nil.
func (t *Toolkit) Current() *Document {
	return t.current
}

// ChunkContent splits the most recently extracted content into overlapping
// windows. It fails with *ConfigError when no document has been read yet or
// the parameters are invalid.
func (t *Toolkit) ChunkContent(size, overlap int) ([]string, error) {
	if t.current == nil {
		return nil, &ConfigError{Reason: "no content available to chunk, read a file first"}
	}
	return ChunkText(t.current.Content, size, overlap)
}
