// Package moderation implements deterministic text canonicalization and the
// rule-based content filter the dispatch pipeline runs every message through.
package moderation

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// leet maps the common digit/symbol substitutions back to the letters they
// stand in for. Applied before the character-class sweep so "$" and "@"
// are matched as letters instead of being stripped.
var leet = strings.NewReplacer(
	"0", "o",
	"1", "i",
	"!", "i",
	"|", "i",
	"3", "e",
	"4", "a",
	"5", "s",
	"7", "t",
	"8", "b",
	"$", "s",
	"@", "a",
)

// diacritics strips combining marks after NFD decomposition.
var diacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Normalize canonicalizes raw text for moderation matching. It never fails
// and is idempotent: Normalize(Normalize(x)) == Normalize(x).
//
// The result is for matching only. Accepted messages are spoken from the
// clipped original text, never from the normalized form.
func Normalize(raw string) string {
	t := stripInvisible(raw)
	t = strings.ToLower(t)
	if out, _, err := transform.String(diacritics, t); err == nil {
		t = out
	}
	t = leet.Replace(t)
	t = collapseRepeats(t)

	var b strings.Builder
	b.Grow(len(t))
	for _, r := range t {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// stripInvisible removes zero-width characters and the BOM, which are the
// usual way obfuscated words are split apart invisibly.
func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\uFEFF', '\u200B', '\u200C', '\u200D', '\u2060':
			return -1
		}
		return r
	}, s)
}

// collapseRepeats shortens any run of three or more identical letters to
// two, so "hooooola" matches the same vocabulary as "hoola".
func collapseRepeats(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev && unicode.IsLetter(r) {
			run++
			if run >= 3 {
				continue
			}
		} else {
			run = 1
		}
		prev = r
		b.WriteRune(r)
	}
	return b.String()
}
