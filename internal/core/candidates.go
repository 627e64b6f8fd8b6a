package core

import "strings"

// Candidates is an ordered list of field names used to locate review text
// in semi-structured input. Earlier names have higher priority.
type Candidates []string

var (
	// TextFieldCandidates name the text-bearing CSV column or JSON object key.
	TextFieldCandidates = Candidates{"text", "review", "comment", "feedback", "message", "content"}

	// ArrayFieldCandidates name the array-valued key of a top-level JSON object.
	ArrayFieldCandidates = Candidates{"texts", "reviews", "comments", "feedbacks", "messages", "content"}
)

// MatchFold reports whether name equals any candidate, ignoring case and
// surrounding whitespace.
func (c Candidates) MatchFold(name string) bool {
	name = strings.TrimSpace(name)
	for _, cand := range c {
		if strings.EqualFold(name, cand) {
			return true
		}
	}
	return false
}

// SelectHeader returns the index of the first header (in header order) that
// matches any candidate, or 0 if none does. ok is false when there are no
// usable headers or the fallback first column is unnamed.
func (c Candidates) SelectHeader(headers []string) (idx int, ok bool) {
	if !hasHeaders(headers) {
		return 0, false
	}
	for i, h := range headers {
		if c.MatchFold(h) {
			return i, true
		}
	}
	return 0, strings.TrimSpace(headers[0]) != ""
}

// FirstKey walks the candidates in priority order and returns the first key
// present in obj whose value satisfies accept.
func (c Candidates) FirstKey(obj map[string]any, accept func(any) bool) (string, bool) {
	for _, cand := range c {
		v, ok := obj[cand]
		if ok && accept(v) {
			return cand, true
		}
	}
	return "", false
}

func hasHeaders(headers []string) bool {
	for _, h := range headers {
		if strings.TrimSpace(h) != "" {
			return true
		}
	}
	return false
}

// nonBlankString accepts strings that are non-empty after trimming.
func nonBlankString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

// isArray accepts JSON arrays.
func isArray(v any) bool {
	_, ok := v.([]any)
	return ok
}
