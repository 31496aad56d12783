// Package speech provides the text-to-speech engine adapters the dispatch
// worker drains the queue into.
package speech

import "context"

// Options are the per-utterance tunables. They are passed on every call
// because the operator can hot-swap voice and rate between two messages.
type Options struct {
	Voice string
	Rate  float64
}

// Engine converts one text into audible speech, blocking until the audio
// has finished rendering. Failures are returned, never retried here; the
// worker decides whether to fall back to another engine.
type Engine interface {
	Name() string
	Speak(ctx context.Context, text string, opts Options) error
}
