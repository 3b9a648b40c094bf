// Package text provides tokenization and normalization for course titles and
// user-entered skill strings.
package text

import (
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
)

// stopWords are dropped before stemming. The set is intentionally small:
// titles are short and most words carry signal.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {},
	"in": {}, "on": {}, "at": {}, "to": {},
}

// Tokenize normalizes raw text into a sequence of stemmed terms: lowercase,
// strip everything outside [a-z0-9] and whitespace, split on whitespace runs,
// drop stop words, stem survivors. Empty input yields an empty slice.
func Tokenize(raw string) []string {
	if raw == "" {
		return nil
	}
	cleaned := normalize(raw)
	words := strings.Fields(cleaned)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if _, stop := stopWords[word]; stop {
			continue
		}
		stemmed := snowballeng.Stem(word, false)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, stemmed)
	}
	return tokens
}

// normalize lowercases s and replaces every rune outside [a-z0-9\s] with
// nothing, preserving whitespace so word boundaries survive.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// SplitCommaList splits a comma-separated string into lowercased, trimmed,
// non-empty entries. Used for manually entered skill lists.
func SplitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(strings.ToLower(s), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
