package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// notebookDocument captures the structural fields of the nbformat v4 schema.
// Unknown keys inside cells and metadata are retained through the generic
// maps, so re-serialization round-trips code, markdown and notebook metadata.
type notebookDocument struct {
	Cells         []notebookCell `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

type notebookCell struct {
	CellType       string           `json:"cell_type"`
	Source         notebookSource   `json:"source"`
	Metadata       map[string]any   `json:"metadata"`
	Outputs        []map[string]any `json:"outputs,omitempty"`
	ExecutionCount *int             `json:"execution_count,omitempty"`
}

// notebookSource accepts either the string or line-array encoding the
// notebook format allows for cell sources.
type notebookSource []string

func (s *notebookSource) UnmarshalJSON(data []byte) error {
	var lines []string
	if err := json.Unmarshal(data, &lines); err == nil {
		*s = lines
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*s = []string{joined}
	return nil
}

// extractNotebook parses an .ipynb document and re-serializes it to a
// canonical textual form, keeping cell content and notebook metadata.
func extractNotebook(content string) (string, error) {
	var nb notebookDocument
	if err := json.Unmarshal([]byte(content), &nb); err != nil {
		return "", extractionErr(FormatNotebook, fmt.Errorf("parse notebook: %w", err))
	}
	if nb.NBFormat == 0 && len(nb.Cells) == 0 {
		return "", extractionErrf(FormatNotebook, "not a notebook document")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(nb); err != nil {
		return "", extractionErr(FormatNotebook, fmt.Errorf("serialize notebook: %w", err))
	}

	out := buf.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return string(out), nil
}
