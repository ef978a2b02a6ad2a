// Package textnorm canonicalises free text for indexing and matching: it
// case-folds, strips diacritics, removes punctuation, and collapses
// whitespace, so that "Šampón" and "sampon" compare equal.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, removes combining marks, and recomposes.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize returns the canonical form of s: lower-cased, diacritics
// removed, punctuation replaced by spaces, runs of whitespace collapsed to
// single spaces, leading and trailing space trimmed.
func Normalize(s string) string {
	s = strings.ToLower(s)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Tokens normalizes s and splits it into whitespace-separated tokens of
// length ≥ minLen. When max > 0 the result is truncated to max tokens.
func Tokens(s string, minLen, max int) []string {
	fields := strings.Fields(Normalize(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minLen {
			continue
		}
		tokens = append(tokens, f)
		if max > 0 && len(tokens) == max {
			break
		}
	}
	return tokens
}

var entities = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// StripMarkup removes HTML-style tags and common entities from s and
// collapses the remaining whitespace. Feed descriptions frequently carry
// embedded markup.
func StripMarkup(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(entities.Replace(b.String())), " ")
}
