package suggest

import (
	"strings"
	"unicode/utf8"
)

// CleanSuggestion strips the part of a suggestion that repeats text the user
// already typed. The body is whitespace-normalized and compared
// case-insensitively against the start of the suggestion; on a match only
// the novel continuation is returned. Otherwise the suggestion is returned
// trimmed but unchanged.
func CleanSuggestion(suggestion, body string) string {
	typed := strings.Join(strings.Fields(body), " ")
	trimmed := strings.TrimSpace(suggestion)

	if typed == "" {
		return trimmed
	}

	n := utf8.RuneCountInString(typed)
	runes := []rune(trimmed)
	if len(runes) < n {
		return trimmed
	}

	if strings.EqualFold(string(runes[:n]), typed) {
		return strings.TrimSpace(string(runes[n:]))
	}

	return trimmed
}

// insertAt inserts text at a rune offset in s, clamping the offset to s.
// It returns the new string and the rune offset just past the insertion.
func insertAt(s string, offset int, text string) (string, int) {
	runes := []rune(s)
	if offset < 0 {
		offset = 0
	}
	if offset > len(runes) {
		offset = len(runes)
	}

	inserted := []rune(text)
	out := make([]rune, 0, len(runes)+len(inserted))
	out = append(out, runes[:offset]...)
	out = append(out, inserted...)
	out = append(out, runes[offset:]...)

	return string(out), offset + len(inserted)
}
