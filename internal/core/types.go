package core

import (
	"strings"
	"time"
)

// SentimentLabel is the closed set of classifier outcomes.
type SentimentLabel string

const (
	LabelPositive SentimentLabel = "positive"
	LabelNegative SentimentLabel = "negative"
	LabelNeutral  SentimentLabel = "neutral"
)

// Labels lists every valid label in display order.
var Labels = []SentimentLabel{LabelPositive, LabelNegative, LabelNeutral}

// Valid reports whether l is one of the three known labels.
func (l SentimentLabel) Valid() bool {
	switch l {
	case LabelPositive, LabelNegative, LabelNeutral:
		return true
	}
	return false
}

// ParseLabel converts a case-insensitive label name into a SentimentLabel.
func ParseLabel(s string) (SentimentLabel, bool) {
	l := SentimentLabel(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Valid()
}

// Format identifies which extractor handles a document.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatText Format = "txt"
)

// RawDocument is an unparsed upload. It lives for one request only.
type RawDocument struct {
	Filename string
	Format   Format // empty means derive from Filename
	Content  []byte
}

// Size returns the raw byte length checked by the size guard.
func (d RawDocument) Size() int64 {
	return int64(len(d.Content))
}

// ReviewText is one trimmed, non-empty text and its ordinal position in the
// source document (data row, array element, or line index).
type ReviewText struct {
	Text     string
	Position int
}

// ParseOutcome is what an extractor produces.
type ParseOutcome struct {
	Texts  []ReviewText
	Column string // selected CSV column; empty for other formats
}

// Strings returns the texts in order.
func (p ParseOutcome) Strings() []string {
	out := make([]string, len(p.Texts))
	for i, t := range p.Texts {
		out[i] = t.Text
	}
	return out
}

// ClassificationResult is the outcome for one text. Text is the trimmed,
// untruncated original. Degraded marks a fail-open substitution.
type ClassificationResult struct {
	Text       string         `json:"text"`
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
	Degraded   bool           `json:"degraded"`
}

// BatchResult holds results index-aligned with the input plus label tallies.
// Total always equals len(Results) and PositiveCount+NegativeCount+NeutralCount.
type BatchResult struct {
	Results       []ClassificationResult `json:"results"`
	Total         int                    `json:"total"`
	PositiveCount int                    `json:"positive_count"`
	NegativeCount int                    `json:"negative_count"`
	NeutralCount  int                    `json:"neutral_count"`
	DegradedCount int                    `json:"degraded_count"`
}

// TextStats summarizes extracted text lengths in characters.
type TextStats struct {
	TotalTexts int     `json:"total_texts"`
	AvgLength  float64 `json:"avg_length"`
	MinLength  int     `json:"min_length"`
	MaxLength  int     `json:"max_length"`
}

// FileBatchResult is a BatchResult for a file upload.
type FileBatchResult struct {
	AnalysisID     string    `json:"analysis_id"`
	Filename       string    `json:"filename"`
	FileSize       int64     `json:"file_size"`
	Format         Format    `json:"format"`
	Column         string    `json:"column,omitempty"`
	TotalProcessed int       `json:"total_processed"`
	ProcessingTime float64   `json:"processing_time"` // seconds, 2 decimal places
	Stats          TextStats `json:"stats"`
	BatchResult
}

// Phase is a step of the document pipeline, used in logs.
type Phase string

const (
	PhaseReceived       Phase = "received"
	PhaseFormatDetected Phase = "format_detected"
	PhaseSizeChecked    Phase = "size_checked"
	PhaseExtracted      Phase = "extracted"
	PhaseClassified     Phase = "classified"
	PhaseAggregated     Phase = "aggregated"
	PhaseReturned       Phase = "returned"
)

// Source records which entry point produced an analysis.
type Source string

const (
	SourceText  Source = "text"
	SourceBatch Source = "batch"
	SourceFile  Source = "file"
)

// Analysis statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AnalysisRecord is a persisted analysis. Results is empty in listings.
type AnalysisRecord struct {
	ID              string                 `json:"id"`
	Source          Source                 `json:"source"`
	Filename        string                 `json:"filename,omitempty"`
	FileSize        int64                  `json:"file_size,omitempty"`
	Column          string                 `json:"column,omitempty"`
	Total           int                    `json:"total"`
	PositiveCount   int                    `json:"positive_count"`
	NegativeCount   int                    `json:"negative_count"`
	NeutralCount    int                    `json:"neutral_count"`
	DegradedCount   int                    `json:"degraded_count"`
	DurationSeconds float64                `json:"duration_seconds"`
	Status          string                 `json:"status"`
	ErrorCode       string                 `json:"error_code,omitempty"`
	ClientIP        string                 `json:"client_ip,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	Results         []ClassificationResult `json:"results,omitempty"`
}
