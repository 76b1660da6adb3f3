package catalog

import (
	"slices"
	"strings"
)

// NormalizeKeyword returns the stored form of a keyword: the text with
// surrounding whitespace removed. Keywords otherwise match exactly.
func NormalizeKeyword(text string) string {
	return strings.TrimSpace(text)
}

// NormalizeKeywords normalizes each keyword, drops empty ones and keeps the
// first occurrence of duplicates. The result is what both the XMP subject
// list and the keyword links hold.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = NormalizeKeyword(k)
		if k != "" && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}
