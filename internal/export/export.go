// Package export renders a stored analysis as a downloadable CSV or XLSX file.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/reviewsense/internal/core"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnknownFormat is returned for formats other than csv and xlsx.
var ErrUnknownFormat = errors.New("unknown export format")

const sheet = "Results"

var headers = []string{"#", "Text", "Label", "Confidence", "Degraded"}

// ParseFormat accepts "csv" or "xlsx" (case-insensitive). Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename names the download for rec, e.g. "analysis_20260301_120000_1a2b3c4d.csv".
func Filename(rec *core.AnalysisRecord, f Format) string {
	id := rec.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("analysis_%s_%s.%s", rec.CreatedAt.UTC().Format("20060102_150405"), id, f)
}

// Write renders rec to w in format f.
func Write(w io.Writer, rec *core.AnalysisRecord, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rec)
	case FormatXLSX:
		data, err := XLSX(rec)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteCSV writes one row per classified text, in input order.
func WriteCSV(w io.Writer, rec *core.AnalysisRecord) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(headers); err != nil {
		return err
	}
	for i, r := range rec.Results {
		if err := csvWriter.Write(row(i, r)); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// XLSX builds a workbook with a results sheet and a summary sheet.
func XLSX(rec *core.AnalysisRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1".
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(rec.Results)+1)
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	rows = append(rows, header)
	for i, r := range rec.Results {
		rows = append(rows, []any{i + 1, r.Text, string(r.Label), r.Confidence, r.Degraded})
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return nil, err
	}

	for _, w := range []struct {
		from, to string
		width    float64
	}{
		{"A", "A", 6},
		{"B", "B", 80},
		{"C", "E", 12},
	} {
		if err := f.SetColWidth(sheet, w.from, w.to, w.width); err != nil {
			return nil, fmt.Errorf("xlsx column width: %w", err)
		}
	}

	if err := writeSummary(f, rec); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, rec *core.AnalysisRecord) error {
	const summary = "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return err
	}

	pairs := [][2]any{
		{"Analysis ID", rec.ID},
		{"Source", string(rec.Source)},
		{"Filename", rec.Filename},
		{"Column", rec.Column},
		{"Status", rec.Status},
		{"Total", rec.Total},
		{"Positive", rec.PositiveCount},
		{"Negative", rec.NegativeCount},
		{"Neutral", rec.NeutralCount},
		{"Degraded", rec.DegradedCount},
		{"Duration (s)", rec.DurationSeconds},
		{"Created", rec.CreatedAt.UTC().Format("2006-01-02 15:04:05")},
	}
	rows := make([][]any, len(pairs))
	for i, p := range pairs {
		rows[i] = []any{p[0], p[1]}
	}
	if err := writeRows(f, summary, rows); err != nil {
		return err
	}
	return f.SetColWidth(summary, "A", "A", 16)
}

// writeRows writes rows starting at A1 and stops at the first failure.
func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+1, err)
		}
	}
	return nil
}

func row(i int, r core.ClassificationResult) []string {
	return []string{
		strconv.Itoa(i + 1),
		r.Text,
		string(r.Label),
		strconv.FormatFloat(r.Confidence, 'f', 4, 64),
		strconv.FormatBool(r.Degraded),
	}
}
