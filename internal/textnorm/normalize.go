// Package textnorm canonicalizes free-form chat text into a comparable form.
// Matching operates on normalized text only, so both user messages and FAQ
// questions pass through Normalize before they are split into words.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Punctuation lists every character removed by Normalize in addition to '?'.
const Punctuation = ".,/#!$%^&*;:{}=-_`~()"

// Normalize lowercases text, strips punctuation and question marks,
// collapses whitespace runs to a single space and trims the result.
//
// Normalize is total and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	// cases.Caser keeps internal state and must not be shared between goroutines.
	lowered := cases.Lower(language.Und).String(text)
	stripped := strings.Map(func(r rune) rune {
		if r == '?' || strings.ContainsRune(Punctuation, r) {
			return -1
		}
		return r
	}, lowered)

	return strings.Join(strings.Fields(stripped), " ")
}

// Words returns the normalized text split on single spaces.
// Empty input yields a nil slice rather than a single empty word.
func Words(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}
