package core

import "fmt"

// DefaultMaxDocumentSize is the raw byte cap applied when none is configured.
const DefaultMaxDocumentSize int64 = 10 * 1024 * 1024

// WithinSizeLimit reports whether size is acceptable under limit.
// A non-positive limit means DefaultMaxDocumentSize.
func WithinSizeLimit(size, limit int64) bool {
	if limit <= 0 {
		limit = DefaultMaxDocumentSize
	}
	return size <= limit
}

// CheckSize rejects documents larger than limit with ErrOversizeDocument.
func CheckSize(size, limit int64) error {
	if limit <= 0 {
		limit = DefaultMaxDocumentSize
	}
	if !WithinSizeLimit(size, limit) {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrOversizeDocument, size, limit)
	}
	return nil
}
