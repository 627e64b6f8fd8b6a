package core

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

var discardLogger = slog.New(slog.DiscardHandler)

func extractStrings(t *testing.T, ex Extractor, content string) ([]string, string) {
	t.Helper()
	out, err := ex.Extract([]byte(content))
	if err != nil {
		t.Fatalf("Extract(%q) error = %v", content, err)
	}
	return out.Strings(), out.Column
}

func TestCSVExtractor(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantTexts  []string
		wantColumn string
	}{
		{
			name:       "review column skips blanks",
			content:    "Review\nGreat!\n\"\"\nBad\n",
			wantTexts:  []string{"Great!", "Bad"},
			wantColumn: "Review",
		},
		{
			name:       "first matching header wins",
			content:    "id,comment,text\n1,from comment,from text\n",
			wantTexts:  []string{"from comment"},
			wantColumn: "comment",
		},
		{
			name:       "fallback to first column",
			content:    "body,stars\nnice,5\nmeh,3\n",
			wantTexts:  []string{"nice", "meh"},
			wantColumn: "body",
		},
		{
			name:       "values are trimmed",
			content:    "text\n  padded  \n   \n",
			wantTexts:  []string{"padded"},
			wantColumn: "text",
		},
		{
			name:       "short rows are skipped",
			content:    "id,text\n1,kept\n2\n3,also kept\n",
			wantTexts:  []string{"kept", "also kept"},
			wantColumn: "text",
		},
		{
			name:       "quoted commas and newlines",
			content:    "text\n\"a, b\"\n\"line1\nline2\"\n",
			wantTexts:  []string{"a, b", "line1\nline2"},
			wantColumn: "text",
		},
		{
			name:       "bom stripped from header",
			content:    "\ufeffText\nhello\n",
			wantTexts:  []string{"hello"},
			wantColumn: "Text",
		},
		{
			name:       "header only",
			content:    "text\n",
			wantTexts:  nil,
			wantColumn: "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			texts, col := extractStrings(t, CSVExtractor{}, tt.content)
			if len(texts) == 0 && len(tt.wantTexts) == 0 {
				texts, tt.wantTexts = nil, nil
			}
			if !reflect.DeepEqual(texts, tt.wantTexts) {
				t.Errorf("texts = %q, want %q", texts, tt.wantTexts)
			}
			if col != tt.wantColumn {
				t.Errorf("column = %q, want %q", col, tt.wantColumn)
			}
		})
	}
}

func TestCSVExtractor_Positions(t *testing.T) {
	out, err := CSVExtractor{}.Extract([]byte("text\na\n\"\"\nb\n"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := []ReviewText{{Text: "a", Position: 0}, {Text: "b", Position: 2}}
	if !reflect.DeepEqual(out.Texts, want) {
		t.Errorf("Texts = %+v, want %+v", out.Texts, want)
	}
}

func TestCSVExtractor_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty document", []byte("")},
		{"blank header row", []byte(" , \nx,y\n")},
		{"unnamed first column without candidate", []byte(",foo\nx,y\n")},
		{"invalid utf-8", []byte("text\n\xff\xfe\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CSVExtractor{}.Extract(tt.content)
			if !errors.Is(err, ErrParse) {
				t.Errorf("Extract() error = %v, want ErrParse", err)
			}
		})
	}
}

func TestJSONExtractor(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"object with reviews", `{"reviews": ["Good", "", "Bad"]}`, []string{"Good", "Bad"}},
		{"array of strings", `["one", "  ", " two "]`, []string{"one", "two"}},
		{"array of objects", `[{"review": "r1"}, {"comment": "c1"}, {"other": "x"}]`, []string{"r1", "c1"}},
		{"object key priority", `[{"content": "low", "text": "high"}]`, []string{"high"}},
		{"blank key falls through", `[{"text": "", "review": "used"}]`, []string{"used"}},
		{"mixed elements", `["s", 42, null, {"message": "m"}, ["nested"], true]`, []string{"s", "m"}},
		{"first array key wins", `{"content": ["c"], "texts": ["t"]}`, []string{"t"}},
		{"non-array candidate skipped", `{"texts": "nope", "comments": ["yes"]}`, []string{"yes"}},
		{"non-string array items skipped", `{"texts": ["a", 1, {"text": "x"}, "b"]}`, []string{"a", "b"}},
		{"object without candidates", `{"data": ["x"]}`, nil},
		{"bare string", `"just a string"`, nil},
		{"number", `42`, nil},
		{"null", `null`, nil},
		{"empty array", `[]`, nil},
		{"bom", "\ufeff[\"x\"]", []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			texts, col := extractStrings(t, JSONExtractor{}, tt.content)
			if len(texts) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(texts, tt.want) {
				t.Errorf("texts = %q, want %q", texts, tt.want)
			}
			if col != "" {
				t.Errorf("column = %q, want empty", col)
			}
		})
	}
}

func TestJSONExtractor_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"truncated", `{"texts": ["a"`},
		{"trailing garbage", `["a"] ]`},
		{"two values", `["a"] ["b"]`},
		{"single quotes", `['a']`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JSONExtractor{}.Extract([]byte(tt.content))
			if !errors.Is(err, ErrParse) {
				t.Errorf("Extract(%q) error = %v, want ErrParse", tt.content, err)
			}
		})
	}
}

func TestTextExtractor(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"skips blank lines", "a\n\nb\n", []string{"a", "b"}},
		{"crlf", "first\r\nsecond\r\n", []string{"first", "second"}},
		{"trims lines", "  x  \n\t\ny", []string{"x", "y"}},
		{"no quoting", "\"quoted, text\"\n", []string{"\"quoted, text\""}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			texts, _ := extractStrings(t, TextExtractor{}, tt.content)
			if len(texts) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(texts, tt.want) {
				t.Errorf("texts = %q, want %q", texts, tt.want)
			}
		})
	}
}

func TestExtractors_InvalidUTF8(t *testing.T) {
	for format, ex := range extractors {
		t.Run(string(format), func(t *testing.T) {
			_, err := ex.Extract([]byte{0xff})
			if !errors.Is(err, ErrInvalidEncoding) {
				t.Fatalf("Extract() error = %v, want ErrInvalidEncoding", err)
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("Extract() error = %v, want it to wrap ErrParse", err)
			}
			if got := MapError(err).Code; got != "FILE003" {
				t.Errorf("MapError() code = %q, want FILE003", got)
			}
		})
	}
}

func TestExtractors_Deterministic(t *testing.T) {
	inputs := map[Format]string{
		FormatCSV:  "id,review\n1,good\n2,\n3,bad\n",
		FormatJSON: `[{"text":"a"},"b",{"x":1}]`,
		FormatText: "l1\n\nl2\n",
	}

	for format, content := range inputs {
		ex, err := ExtractorFor(format)
		if err != nil {
			t.Fatalf("ExtractorFor(%q) error = %v", format, err)
		}
		first, err1 := ex.Extract([]byte(content))
		second, err2 := ex.Extract([]byte(content))
		if err1 != nil || err2 != nil {
			t.Fatalf("Extract errors: %v, %v", err1, err2)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s: repeated extraction differs: %+v vs %+v", format, first, second)
		}
	}
}

func TestExtractorFor_Unknown(t *testing.T) {
	if _, err := ExtractorFor("pdf"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ExtractorFor(pdf) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestIngest(t *testing.T) {
	t.Run("pdf rejected before parsing", func(t *testing.T) {
		doc := RawDocument{Filename: "reviews.pdf", Content: []byte("plain readable text\n")}
		_, _, err := Ingest(doc, 0, discardLogger)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Ingest() error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("oversize rejected regardless of content", func(t *testing.T) {
		doc := RawDocument{Filename: "reviews.txt", Content: []byte("valid line\nanother line\n")}
		_, _, err := Ingest(doc, 5, discardLogger)
		if !errors.Is(err, ErrOversizeDocument) {
			t.Errorf("Ingest() error = %v, want ErrOversizeDocument", err)
		}
	})

	t.Run("oversize checked before parse", func(t *testing.T) {
		doc := RawDocument{Filename: "bad.json", Content: []byte("{{{{{{{{")}
		_, _, err := Ingest(doc, 4, discardLogger)
		if !errors.Is(err, ErrOversizeDocument) {
			t.Errorf("Ingest() error = %v, want ErrOversizeDocument", err)
		}
	})

	t.Run("empty extraction", func(t *testing.T) {
		doc := RawDocument{Filename: "empty.txt", Content: []byte("\n  \n")}
		_, _, err := Ingest(doc, 0, discardLogger)
		if !errors.Is(err, ErrEmptyExtraction) {
			t.Errorf("Ingest() error = %v, want ErrEmptyExtraction", err)
		}
	})

	t.Run("declared format overrides filename", func(t *testing.T) {
		doc := RawDocument{Filename: "upload", Format: "txt", Content: []byte("x\n")}
		format, out, err := Ingest(doc, 0, discardLogger)
		if err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
		if format != FormatText || len(out.Texts) != 1 {
			t.Errorf("Ingest() = (%q, %d texts), want (txt, 1)", format, len(out.Texts))
		}
	})

	t.Run("csv reports column", func(t *testing.T) {
		doc := RawDocument{Filename: "r.csv", Content: []byte("Review\nGreat!\n\"\"\nBad\n")}
		format, out, err := Ingest(doc, 0, discardLogger)
		if err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
		if format != FormatCSV || out.Column != "Review" {
			t.Errorf("Ingest() = (%q, column %q), want (csv, Review)", format, out.Column)
		}
	})
}

func TestIngest_LogsGuardPhases(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	doc := RawDocument{Filename: "r.txt", Content: []byte("fine\n")}
	if _, _, err := Ingest(doc, 0, log); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	out := buf.String()
	detected := strings.Index(out, "phase="+string(PhaseFormatDetected))
	checked := strings.Index(out, "phase="+string(PhaseSizeChecked))
	if detected < 0 || checked < 0 {
		t.Fatalf("missing guard phases in log:\n%s", out)
	}
	if detected > checked {
		t.Errorf("format_detected logged after size_checked:\n%s", out)
	}
}

func TestIngest_RejectedFormatSkipsSizePhase(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	doc := RawDocument{Filename: "r.pdf", Content: []byte("fine\n")}
	if _, _, err := Ingest(doc, 0, log); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("Ingest() error = %v, want ErrUnsupportedFormat", err)
	}
	if out := buf.String(); strings.Contains(out, string(PhaseSizeChecked)) {
		t.Errorf("size_checked logged for a rejected format:\n%s", out)
	}
}
