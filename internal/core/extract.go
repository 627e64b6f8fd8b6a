package core

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// Extractor turns raw document bytes into ordered review texts.
// Implementations are pure: the same bytes always yield the same outcome.
type Extractor interface {
	Extract(content []byte) (ParseOutcome, error)
}

var extractors = map[Format]Extractor{
	FormatCSV:  CSVExtractor{},
	FormatJSON: JSONExtractor{},
	FormatText: TextExtractor{},
}

// ExtractorFor returns the extractor registered for f.
func ExtractorFor(f Format) (Extractor, error) {
	ex, ok := extractors[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return ex, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeContent strips a leading UTF-8 BOM and rejects invalid UTF-8.
func decodeContent(content []byte) ([]byte, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}
	return content, nil
}
