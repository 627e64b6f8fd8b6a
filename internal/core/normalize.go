package core

import "strings"

// DefaultMaxTextLength is the classifier input cap in characters.
const DefaultMaxTextLength = 512

// Normalizer prepares text for classification. The output result keeps the
// trimmed original; only the classifier sees the truncated copy.
type Normalizer struct {
	MaxLength int // characters; <= 0 means DefaultMaxTextLength
}

// Normalize returns the trimmed original and the copy sent to the classifier.
func (n Normalizer) Normalize(text string) (original, input string) {
	original = strings.TrimSpace(text)
	max := n.MaxLength
	if max <= 0 {
		max = DefaultMaxTextLength
	}
	return original, Truncate(original, max)
}

// Truncate cuts s to at most max characters, never splitting a rune.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// CharLen returns the length of s in characters.
func CharLen(s string) int {
	return len([]rune(s))
}
