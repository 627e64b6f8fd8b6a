package core

// # Error Codes Reference
//
// User-facing errors carry a code that users can quote to support.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: document exceeds the configured size limit
//	          Sentinel: ErrOversizeDocument
//	FILE002 - Invalid document: content could not be parsed as its format
//	          Sentinel: ErrParse
//	FILE003 - Encoding error: content is not valid UTF-8
//	          Sentinel: ErrInvalidEncoding (checked before ErrParse)
//	FILE004 - No file: no file was selected
//	          Sentinel: ErrNoDocument
//	FILE005 - No texts: parsing found no non-empty review texts
//	          Sentinel: ErrEmptyExtraction
//	FILE006 - Unsupported format: extension is not csv, json or txt
//	          Sentinel: ErrUnsupportedFormat
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid input: batch size or text length out of range
//	         Sentinel: ErrInvalidBatch
//	VAL002 - Malformed request: request body failed schema validation
//	         Patterns: "invalid request body"
//
// # Analysis Errors (UPL001-UPL099)
//
//	UPL002 - System busy: too many analyses in progress
//	         Sentinel: ErrTooManyAnalyses
//	UPL004 - Request cancelled
//	         Sentinel: context.Canceled
//	UPL005 - Request timeout
//	         Sentinel: context.DeadlineExceeded
//
// # Model Errors (MDL001-MDL099)
//
//	MDL001 - Model not ready: classifier still loading or failed to load
//	         Sentinel: ErrModelNotReady
//
// # History Errors (HIST001-HIST099)
//
//	HIST001 - Analysis not found
//	          Sentinel: ErrAnalysisNotFound
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.
//
// Sentinels are matched with errors.Is before any pattern, so wrapped errors
// map correctly. Patterns are matched case-insensitively with
// strings.Contains; the first match wins.

import (
	"context"
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []sentinelMessage{
	{ErrOversizeDocument, UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller files",
		Code:    "FILE001",
	}},
	{ErrInvalidEncoding, UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8",
		Code:    "FILE003",
	}},
	{ErrParse, UserMessage{
		Message: "File could not be parsed",
		Action:  "Check that the file content matches its extension and is UTF-8 encoded",
		Code:    "FILE002",
	}},
	{ErrNoDocument, UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV, JSON or TXT file to upload",
		Code:    "FILE004",
	}},
	{ErrEmptyExtraction, UserMessage{
		Message: "No texts found in file",
		Action:  "Add a text, review or comment column, or one review per line",
		Code:    "FILE005",
	}},
	{ErrUnsupportedFormat, UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload a .csv, .json or .txt file",
		Code:    "FILE006",
	}},
	{ErrInvalidBatch, UserMessage{
		Message: "Invalid input",
		Action:  "Send 1-100 texts of 1-512 characters each",
		Code:    "VAL001",
	}},
	{ErrTooManyAnalyses, UserMessage{
		Message: "System is busy processing other files",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}},
	{ErrModelNotReady, UserMessage{
		Message: "Sentiment model is not ready",
		Action:  "Please try again in a few moments",
		Code:    "MDL001",
	}},
	{ErrAnalysisNotFound, UserMessage{
		Message: "Analysis not found",
		Action:  "Check the analysis ID or run the analysis again",
		Code:    "HIST001",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that do not wrap a sentinel.
var errorPatterns = []errorPattern{
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "Request body is malformed",
			Action:  "Check the request against the API documentation",
			Code:    "VAL002",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels are matched with errors.Is first, then the error text is
// searched for known patterns. Unmatched errors map to ERR000.
//
// Example:
//
//	err := fmt.Errorf("%w: .pdf", ErrUnsupportedFormat)
//	msg := MapError(err)
//	// msg.Code == "FILE006"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}
