// Package textutil holds the small string normalizations shared by readers
// and the dimension builder: accent folding, snake_case field names and
// whitespace collapsing.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldAccents removes combining marks: "Zürich" -> "Zurich".
func FoldAccents(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FieldName turns a free-form header into a snake_case key:
//
//  1. lowercase and trim
//  2. fold accents
//  3. keep [a-z0-9]; runs of anything else become one underscore
//
// It returns "" when nothing survives.
func FieldName(s string) string {
	s = FoldAccents(strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	b.Grow(len(s))
	pendingUnderscore := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingUnderscore && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingUnderscore = false
			b.WriteRune(r)
		default:
			pendingUnderscore = true
		}
	}
	return b.String()
}

// CollapseWhitespace replaces runs of space, tab, newline, carriage return
// and no-break space with a single ASCII space and trims the result.
func CollapseWhitespace(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	seenSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', ' ':
			if !seenSpace {
				b.WriteByte(' ')
				seenSpace = true
			}
		default:
			b.WriteRune(r)
			seenSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

// LettersUpper folds accents, drops every non-letter and upper-cases the
// rest: "São Paulo" -> "SAOPAULO".
func LettersUpper(s string) string {
	folded := FoldAccents(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
