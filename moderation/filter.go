package moderation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/linesmerrill/chat-tts-api/models"
)

// Limits bound the size of a single message.
type Limits struct {
	MaxChars int
	MaxWords int
}

// Outcome is the contract between the filter and its callers. When
// Accepted, Text holds the clipped original text to speak (moderation
// normalization is for matching only, not playback) and Tokens holds the
// normalized tokens for the activity history. When rejected, Reason holds
// the code from the closed taxonomy in models.
type Outcome struct {
	Accepted bool
	Text     string
	Reason   models.Reason
	Tokens   []string
}

// Structural patterns, checked against the clipped but not-yet-normalized
// text. The url/mention/punct patterns come straight from earlier
// iterations of this filter.
var (
	reURL     = regexp.MustCompile(`(?i)(https?://|www\.|\.com|\.net|\.gg|\.ru|\.mx|\.xyz)`)
	reEmail   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	rePhone   = regexp.MustCompile(`(^|[^0-9])[0-9]{10}([^0-9]|$)`)
	reMention = regexp.MustCompile(`@\w+`)
	rePunct   = regexp.MustCompile(`[!?¿¡]{4,}`)
)

// allowedRune is the allow-listed script and punctuation set. Messages
// containing anything outside it are rejected outright with reason
// "chars"; offending characters are never silently stripped, so what the
// dashboard shows is exactly what was checked.
func allowedRune(r rune) bool {
	if unicode.In(r, unicode.Latin) || unicode.IsDigit(r) || unicode.IsSpace(r) {
		return true
	}
	return strings.ContainsRune(`.,!?¿¡'":;()-+`, r)
}

// Filter runs every moderation check against a raw message. Checks run in
// a fixed order and the first failure wins.
func Filter(raw string, limits Limits, lists *WordLists) Outcome {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return reject(models.ReasonEmpty)
	}

	clipped := clip(trimmed, limits.MaxChars)

	switch {
	case reURL.MatchString(clipped):
		return reject(models.ReasonURL)
	case reEmail.MatchString(clipped):
		return reject(models.ReasonEmail)
	case rePhone.MatchString(clipped):
		return reject(models.ReasonPhone)
	case reMention.MatchString(clipped):
		return reject(models.ReasonMention)
	case hasRepeatRun(clipped, 5):
		return reject(models.ReasonRepeatSpam)
	case rePunct.MatchString(clipped):
		return reject(models.ReasonPunctSpam)
	}

	for _, r := range clipped {
		if !allowedRune(r) {
			return reject(models.ReasonChars)
		}
	}

	norm := Normalize(clipped)
	tokens := strings.Fields(norm)

	if len(tokens) == 0 {
		return reject(models.ReasonEmptyNorm)
	}
	if len(tokens) > limits.MaxWords {
		return reject(models.ReasonTooManyWords)
	}

	joined := strings.Join(tokens, "")

	if allSingleLetters(tokens) && lists.MatchSpaced(joined) {
		return Outcome{Reason: models.ReasonSpacedWord, Tokens: tokens}
	}
	for _, tok := range tokens {
		// Also check with repeated letters fully squeezed, so the
		// collapsed-to-two form of "hooola" still matches "hola".
		if lists.HasExact(tok) || lists.HasExact(squeeze(tok)) {
			return Outcome{Reason: models.ReasonExactWord, Tokens: tokens}
		}
	}
	if lists.MatchJoined(joined) {
		return Outcome{Reason: models.ReasonJoinedWord, Tokens: tokens}
	}

	return Outcome{Accepted: true, Text: clipped, Tokens: tokens}
}

func reject(reason models.Reason) Outcome {
	return Outcome{Reason: reason}
}

// clip hard-truncates to max runes. Truncation is not a rejection.
func clip(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// hasRepeatRun reports a run of n or more identical runes. RE2 has no
// backreferences, so the (.)\1{4,} check is a manual scan.
func hasRepeatRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// squeeze collapses every run of identical runes to a single rune.
func squeeze(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		if r != prev {
			b.WriteRune(r)
			prev = r
		}
	}
	return b.String()
}

func allSingleLetters(tokens []string) bool {
	if len(tokens) < 2 {
		return false
	}
	for _, tok := range tokens {
		if len([]rune(tok)) != 1 {
			return false
		}
	}
	return true
}
