package moderation

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
)

// MinSubstringLen is the shortest substring-list entry kept at load time.
// Shorter entries match inside too many innocent words to be usable.
const MinSubstringLen = 4

// MinWordLen is the shortest word the single-word add command accepts.
const MinWordLen = 3

// ErrWordTooShort is returned by SanitizeWord for words below MinWordLen
// after sanitation.
var ErrWordTooShort = errors.New("word too short")

// WordLists is an immutable snapshot of the two vocabulary lists. Entries
// are normalized at construction so matching against normalized message
// text is a plain lookup. Replace the whole value on reload; never mutate.
type WordLists struct {
	exact      map[string]struct{}
	substrings []string
}

// NewWordLists builds a snapshot from raw list lines. Blank lines are
// dropped, exact entries are deduplicated, and substring entries shorter
// than MinSubstringLen are excluded.
func NewWordLists(exact, substrings []string) *WordLists {
	w := &WordLists{exact: make(map[string]struct{}, len(exact))}
	for _, line := range exact {
		if word := Normalize(line); word != "" {
			w.exact[word] = struct{}{}
		}
	}
	seen := make(map[string]struct{}, len(substrings))
	for _, line := range substrings {
		word := Normalize(line)
		if len([]rune(word)) < MinSubstringLen {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		w.substrings = append(w.substrings, word)
	}
	return w
}

// HasExact reports whether the token is on the exact-word list.
func (w *WordLists) HasExact(token string) bool {
	_, ok := w.exact[token]
	return ok
}

// MatchJoined reports whether any substring entry occurs inside the joined
// (separator-free) form of the message.
func (w *WordLists) MatchJoined(joined string) bool {
	for _, bad := range w.substrings {
		if strings.Contains(joined, bad) {
			return true
		}
	}
	return false
}

// MatchSpaced reports whether the joined form of an all-single-letter
// message spells out a listed word, catching "p u t a" style spacing.
func (w *WordLists) MatchSpaced(joined string) bool {
	if w.HasExact(joined) {
		return true
	}
	return w.MatchJoined(joined)
}

// Exact returns the exact-word entries, sorted, for snapshots.
func (w *WordLists) Exact() []string {
	out := make([]string, 0, len(w.exact))
	for word := range w.exact {
		out = append(out, word)
	}
	sort.Strings(out)
	return out
}

// Substrings returns the substring entries in load order, for snapshots.
func (w *WordLists) Substrings() []string {
	out := make([]string, len(w.substrings))
	copy(out, w.substrings)
	return out
}

// SanitizeWord prepares a single operator-submitted word for list
// insertion: diacritics stripped, everything but letters and digits
// removed, lower-cased. Words shorter than MinWordLen after sanitation are
// rejected.
func SanitizeWord(raw string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(raw))
	if out, _, err := transform.String(diacritics, t); err == nil {
		t = out
	}
	var b strings.Builder
	for _, r := range t {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	word := b.String()
	if len([]rune(word)) < MinWordLen {
		return "", ErrWordTooShort
	}
	return word, nil
}
