package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SupportedFormats lists the accepted extensions.
var SupportedFormats = []Format{FormatCSV, FormatJSON, FormatText}

// ParseFormat maps a declared extension (with or without the leading dot,
// any case) to a Format. Anything other than csv, json or txt is rejected.
func ParseFormat(ext string) (Format, error) {
	norm := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	switch Format(norm) {
	case FormatCSV, FormatJSON, FormatText:
		return Format(norm), nil
	}
	if norm == "" {
		return "", fmt.Errorf("%w: missing extension", ErrUnsupportedFormat)
	}
	return "", fmt.Errorf("%w: %q (supported: csv, json, txt)", ErrUnsupportedFormat, norm)
}

// DetectFormat derives the Format from a filename's extension.
// It never looks at content.
func DetectFormat(filename string) (Format, error) {
	return ParseFormat(filepath.Ext(filename))
}

// formatOf resolves the declared format of d, falling back to its filename.
func formatOf(d RawDocument) (Format, error) {
	if d.Format != "" {
		return ParseFormat(string(d.Format))
	}
	return DetectFormat(d.Filename)
}
