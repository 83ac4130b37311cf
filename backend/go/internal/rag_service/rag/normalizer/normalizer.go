// Package normalizer cleans raw text extracted from PDFs before it is chunked.
package normalizer

import (
	"regexp"
	"strings"
)

// ParagraphBreak separates paragraphs in normalized text.
const ParagraphBreak = "\n\n"

var (
	lineEndings = strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\u2028", "\n",
		"\u2029", "\n",
		"\u0085", "\n",
	)
	// Two or more newlines, possibly with horizontal whitespace on the blank lines.
	paragraphs = regexp.MustCompile(`\n(?:[^\S\n]*\n)+`)
)

// Normalize unifies line endings, keeps paragraph breaks as a double newline, collapses
// every other whitespace run to a single space and trims the result. Punctuation is left
// untouched. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	text := lineEndings.Replace(raw)

	parts := paragraphs.Split(text, -1)
	kept := parts[:0]
	for _, p := range parts {
		// strings.Fields splits on any Unicode whitespace, single newlines included.
		if collapsed := strings.Join(strings.Fields(p), " "); collapsed != "" {
			kept = append(kept, collapsed)
		}
	}
	return strings.Join(kept, ParagraphBreak)
}
