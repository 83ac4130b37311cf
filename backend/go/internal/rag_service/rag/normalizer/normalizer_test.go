package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\r\n\n  ", ""},
		{"windows line endings", "one\r\ntwo\rthree", "one two three"},
		{"paragraphs kept", "First para.\n\nSecond para.", "First para.\n\nSecond para."},
		{"three newlines is one break", "a\n\n\nb", "a\n\nb"},
		{"crlf paragraphs", "a\r\n\r\nb", "a\n\nb"},
		{"blank line with spaces", "a\n   \nb", "a\n\nb"},
		{"spaces around break dropped", "a   \n\n   b", "a\n\nb"},
		{"runs collapsed", "too    many\t\tspaces", "too many spaces"},
		{"single newline becomes space", "line\nwrap", "line wrap"},
		{"punctuation kept", "Really?  Yes!  Done.", "Really? Yes! Done."},
		{"trimmed", "\n\n  padded  \n\n", "padded"},
		{"unicode separators", "a\u2028b\u2029\u2029c", "a b\n\nc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Plain sentence.",
		"a\r\n\r\n\r\nb \t c\n d",
		"  \n\n x \n \n\n y  \r z ",
		"Title\n\n\n\nBody line one\nbody line two.\n\n  \n\nEnd!",
		"\u00a0non-breaking\u00a0spaces\u00a0",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
