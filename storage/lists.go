package storage

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/linesmerrill/chat-tts-api/moderation"
)

// List names accepted by the word-add operation.
const (
	ListExact     = "exact"
	ListSubstring = "substring"
)

// ListStore holds the current word-list snapshot and its two on-disk line
// files. Lookups read the snapshot pointer without locking; edits and
// reloads replace the whole snapshot.
type ListStore struct {
	exactPath string
	subPath   string
	mu        sync.Mutex // serializes writers
	cur       atomic.Pointer[moderation.WordLists]
}

// NewListStore loads both list files. Missing files load as empty lists so
// a fresh data directory works out of the box.
func NewListStore(exactPath, subPath string) (*ListStore, error) {
	st := &ListStore{exactPath: exactPath, subPath: subPath}
	if _, err := st.reload(); err != nil {
		return nil, err
	}
	return st, nil
}

// Get returns the current word-list snapshot.
func (st *ListStore) Get() *moderation.WordLists {
	return st.cur.Load()
}

// Reload re-reads both files. On failure the previous snapshot stays in
// effect. The bool reports whether a new snapshot was installed.
func (st *ListStore) Reload() (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.reload()
}

func (st *ListStore) reload() (bool, error) {
	exact, err := ReadLines(st.exactPath)
	if err != nil {
		return false, fmt.Errorf("read exact list: %w", err)
	}
	sub, err := ReadLines(st.subPath)
	if err != nil {
		return false, fmt.Errorf("read substring list: %w", err)
	}
	st.cur.Store(moderation.NewWordLists(exact, sub))
	return true, nil
}

// Replace overwrites one or both list files with full replacement content
// (newline-delimited) and reloads the snapshot. Nil pointers leave that
// list untouched.
func (st *ListStore) Replace(exact, sub *string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if exact != nil {
		if err := WriteLinesAtomic(st.exactPath, splitContent(*exact)); err != nil {
			return err
		}
	}
	if sub != nil {
		if err := WriteLinesAtomic(st.subPath, splitContent(*sub)); err != nil {
			return err
		}
	}
	_, err := st.reload()
	return err
}

// AddWord sanitizes and appends a single word to the named list, then
// reloads the snapshot. Returns the sanitized word.
func (st *ListStore) AddWord(list, raw string) (string, error) {
	word, err := moderation.SanitizeWord(raw)
	if err != nil {
		return "", err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	var path string
	switch list {
	case ListExact:
		path = st.exactPath
	case ListSubstring:
		path = st.subPath
	default:
		return "", fmt.Errorf("unknown list %q", list)
	}

	lines, err := ReadLines(path)
	if err != nil {
		return "", err
	}
	for _, line := range lines {
		if strings.EqualFold(line, word) {
			return word, nil // already present
		}
	}
	if err := WriteLinesAtomic(path, append(lines, word)); err != nil {
		return "", err
	}
	_, err = st.reload()
	return word, err
}

func splitContent(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
