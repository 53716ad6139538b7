package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// isWordRune matches letters, numbers of any kind and underscore.
// Combining marks split words.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// tokenize lower-cases text and returns runs of two or more word runes,
// skipping stop words.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	var tokens []string
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		tok := text[start:end]
		start = -1
		if utf8.RuneCountInString(tok) < 2 || isStopWord(tok) {
			return
		}
		tokens = append(tokens, tok)
	}
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}
