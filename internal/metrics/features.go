// Package metrics derives privacy-safe size features from text and messages.
package metrics

import (
	"strings"
	"unicode/utf8"

	"github.com/petasbytes/go-assistant/memory"
)

// Features holds basic local text features derived from an input string.
type Features struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// Add returns the field-wise sum of f and o.
func (f Features) Add(o Features) Features {
	return Features{
		Bytes: f.Bytes + o.Bytes,
		Runes: f.Runes + o.Runes,
		Words: f.Words + o.Words,
		Lines: f.Lines + o.Lines,
	}
}

// CountFeatures computes and returns byte, rune, word, and line counts for the input string.
func CountFeatures(s string) Features {
	return Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: countWords(s),
		Lines: countLines(s),
	}
}

// CountMessage sums features over a message's content and the names and
// arguments of its tool calls.
func CountMessage(m memory.Message) Features {
	f := CountFeatures(m.Content)
	for _, tc := range m.ToolCalls {
		f = f.Add(CountFeatures(tc.Name)).Add(CountFeatures(tc.Arguments))
	}
	return f
}

// countWords counts words split on Unicode whitespace.
func countWords(s string) int {
	return len(strings.Fields(s))
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}
