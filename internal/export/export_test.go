package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/reviewsense/internal/core"
)

func testRecord() *core.AnalysisRecord {
	return &core.AnalysisRecord{
		ID:            "1a2b3c4d-0000-4000-8000-000000000000",
		Source:        core.SourceFile,
		Filename:      "reviews.csv",
		Column:        "review",
		Status:        core.StatusCompleted,
		Total:         2,
		PositiveCount: 1,
		NeutralCount:  1,
		DegradedCount: 1,
		CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Results: []core.ClassificationResult{
			{Text: `Great, "really" great`, Label: core.LabelPositive, Confidence: 0.9123},
			{Text: "timed out", Label: core.LabelNeutral, Confidence: 0, Degraded: true},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{"XLSX", FormatXLSX, false},
		{"excel", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnknownFormat", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilename(t *testing.T) {
	got := Filename(testRecord(), FormatXLSX)
	want := "analysis_20260301_120000_1a2b3c4d.xlsx"
	if got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testRecord()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want 3", len(records))
	}
	if strings.Join(records[0], ",") != "#,Text,Label,Confidence,Degraded" {
		t.Errorf("header = %v", records[0])
	}
	want := []string{"1", `Great, "really" great`, "positive", "0.9123", "false"}
	for i, v := range want {
		if records[1][i] != v {
			t.Errorf("row 1 col %d = %q, want %q", i, records[1][i], v)
		}
	}
	if records[2][4] != "true" {
		t.Errorf("row 2 degraded = %q, want %q", records[2][4], "true")
	}
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(testRecord())
	if err != nil {
		t.Fatalf("XLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows(%s) error = %v", sheet, err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[1][1] != `Great, "really" great` {
		t.Errorf("B2 = %q", rows[1][1])
	}
	if rows[2][2] != "neutral" {
		t.Errorf("C3 = %q, want neutral", rows[2][2])
	}

	id, err := f.GetCellValue("Summary", "B1")
	if err != nil {
		t.Fatalf("GetCellValue(Summary!B1) error = %v", err)
	}
	if id != testRecord().ID {
		t.Errorf("Summary!B1 = %q, want %q", id, testRecord().ID)
	}
}

func TestWrite_EmptyResults(t *testing.T) {
	rec := testRecord()
	rec.Results = nil

	for _, f := range []Format{FormatCSV, FormatXLSX} {
		var buf bytes.Buffer
		if err := Write(&buf, rec, f); err != nil {
			t.Errorf("Write(%s) error = %v", f, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Write(%s) produced no output", f)
		}
	}

	if err := Write(&bytes.Buffer{}, rec, Format("pdf")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Write(pdf) error = %v, want ErrUnknownFormat", err)
	}
}

func TestWriteRows(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{{"#", "Text"}, {1, "good"}}
	if err := writeRows(f, "Sheet1", rows); err != nil {
		t.Fatalf("writeRows() error = %v", err)
	}
	if got, _ := f.GetCellValue("Sheet1", "B2"); got != "good" {
		t.Errorf("B2 = %q, want good", got)
	}

	if err := writeRows(f, "Missing", rows); err == nil {
		t.Error("writeRows() on a missing sheet returned nil error")
	}
}
