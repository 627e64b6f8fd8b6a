package core

import (
	"errors"
	"fmt"
)

// Pipeline failures up to extraction are fatal to the request.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrOversizeDocument  = errors.New("file too large")
	ErrParse             = errors.New("invalid document")
	ErrEmptyExtraction   = errors.New("no texts found in document")
	ErrNoDocument        = errors.New("no file provided")
)

// ErrInvalidEncoding is a parse error for content that is not valid UTF-8.
var ErrInvalidEncoding = fmt.Errorf("%w: invalid UTF-8 encoding", ErrParse)

// ErrClassification wraps a single failed classifier call. It never escapes
// the orchestrator; the item is substituted instead.
var ErrClassification = errors.New("classification failed")

var (
	ErrInvalidBatch     = errors.New("invalid batch")
	ErrModelNotReady    = errors.New("model not ready")
	ErrAnalysisNotFound = errors.New("analysis not found")
)

// ErrTooManyAnalyses is returned when all analysis slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyAnalyses = errors.New("too many concurrent analyses, please try again later")
