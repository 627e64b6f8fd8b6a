package core

import "strings"

// TextExtractor emits one review per non-blank line. No quoting or escaping.
type TextExtractor struct{}

func (TextExtractor) Extract(content []byte) (ParseOutcome, error) {
	content, err := decodeContent(content)
	if err != nil {
		return ParseOutcome{}, err
	}

	var out ParseOutcome
	for i, line := range strings.Split(string(content), "\n") {
		if text := strings.TrimSpace(line); text != "" {
			out.Texts = append(out.Texts, ReviewText{Text: text, Position: i})
		}
	}
	return out, nil
}
