package ingestion

import "fmt"

// DetectionError reports a source whose format could not be determined
// because no usable name or extension was available.
type DetectionError struct {
	Name string
}

func (e *DetectionError) Error() string {
	if e.Name == "" {
		return "detect format: source has no name"
	}
	return fmt.Sprintf("detect format: %q has no extension", e.Name)
}

// UnsupportedFormatError reports an extension outside the supported set.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Extension)
}

// ExtractionError wraps a failure inside a format extractor. Parsing-library
// error types never escape the package; they are carried as the cause here.
type ExtractionError struct {
	Format Format
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ConfigError reports invalid chunking parameters.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "chunk config: " + e.Reason }

func extractionErr(format Format, err error) error {
	return &ExtractionError{Format: format, Err: err}
}

func extractionErrf(format Format, msg string, args ...any) error {
	return &ExtractionError{Format: format, Err: fmt.Errorf(msg, args...)}
}
