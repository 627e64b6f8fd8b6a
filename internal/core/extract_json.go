package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// JSONExtractor reads a single JSON value. Recognized shapes:
//
//	["text", {"review": "text"}, ...]   array of strings or objects
//	{"reviews": ["text", ...]}          object holding an array of strings
//
// Other top-level values yield no texts rather than an error.
type JSONExtractor struct{}

func (JSONExtractor) Extract(content []byte) (ParseOutcome, error) {
	content, err := decodeContent(content)
	if err != nil {
		return ParseOutcome{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(content))
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return ParseOutcome{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ParseOutcome{}, fmt.Errorf("%w: unexpected data after top-level value", ErrParse)
	}

	switch v := doc.(type) {
	case []any:
		return ParseOutcome{Texts: textsFromElements(v)}, nil
	case map[string]any:
		key, ok := ArrayFieldCandidates.FirstKey(v, isArray)
		if !ok {
			return ParseOutcome{}, nil
		}
		return ParseOutcome{Texts: stringsFromArray(v[key].([]any))}, nil
	default:
		return ParseOutcome{}, nil
	}
}

// textsFromElements keeps string elements and objects carrying a candidate
// text key. Anything else is skipped.
func textsFromElements(elems []any) []ReviewText {
	var out []ReviewText
	for i, el := range elems {
		switch v := el.(type) {
		case string:
			if text := strings.TrimSpace(v); text != "" {
				out = append(out, ReviewText{Text: text, Position: i})
			}
		case map[string]any:
			if key, ok := TextFieldCandidates.FirstKey(v, nonBlankString); ok {
				out = append(out, ReviewText{Text: strings.TrimSpace(v[key].(string)), Position: i})
			}
		}
	}
	return out
}

func stringsFromArray(elems []any) []ReviewText {
	var out []ReviewText
	for i, el := range elems {
		s, ok := el.(string)
		if !ok {
			continue
		}
		if text := strings.TrimSpace(s); text != "" {
			out = append(out, ReviewText{Text: text, Position: i})
		}
	}
	return out
}
