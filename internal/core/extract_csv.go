package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVExtractor reads delimited text with a header row. The text column is
// the first header matching TextFieldCandidates, else the first column.
type CSVExtractor struct{}

func (CSVExtractor) Extract(content []byte) (ParseOutcome, error) {
	content, err := decodeContent(content)
	if err != nil {
		return ParseOutcome{}, err
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1 // Allow variable field counts
	r.LazyQuotes = true

	headers, err := r.Read()
	if errors.Is(err, io.EOF) {
		return ParseOutcome{}, fmt.Errorf("%w: csv has no header row", ErrParse)
	}
	if err != nil {
		return ParseOutcome{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	col, ok := TextFieldCandidates.SelectHeader(headers)
	if !ok {
		return ParseOutcome{}, fmt.Errorf("%w: csv has no usable text column", ErrParse)
	}

	out := ParseOutcome{Column: strings.TrimSpace(headers[col])}
	for row := 0; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ParseOutcome{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if col >= len(record) {
			continue
		}
		if text := strings.TrimSpace(record[col]); text != "" {
			out.Texts = append(out.Texts, ReviewText{Text: text, Position: row})
		}
	}

	return out, nil
}
