package ingestion

import (
	"path/filepath"
	"strings"
)

// Metadata keys every file-derived document carries.
const (
	MetaFileName = "file_name"
	MetaFileType = "file_type"
)

// ParseMetadata parses a free-form "key1=value1, key2=value2" string into a
// map. Keys and values are trimmed of surrounding whitespace; entries without
// an '=' are skipped rather than failing, and the count of skipped entries is
// reported so callers can surface it. Empty input yields an empty map.
func ParseMetadata(input string) (map[string]string, int) {
	metadata := make(map[string]string)
	skipped := 0

	if strings.TrimSpace(input) == "" {
		return metadata, 0
	}

	for _, item := range strings.Split(input, ",") {
		key, value, found := strings.Cut(item, "=")
		if !found {
			skipped++
			continue
		}
		metadata[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return metadata, skipped
}

// FileMetadata builds the base metadata for a file-derived document: the file
// name and the lower-cased extension it was detected from.
func FileMetadata(name string) map[string]string {
	return map[string]string{
		MetaFileName: filepath.Base(name),
		MetaFileType: strings.ToLower(filepath.Ext(name)),
	}
}
