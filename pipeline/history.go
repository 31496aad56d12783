package pipeline

import (
	"sync"

	"github.com/linesmerrill/chat-tts-api/models"
)

// History is the bounded append-only record of per-message outcomes the
// operator reviews. Oldest entries are evicted first when full.
type History struct {
	mu       sync.Mutex
	entries  []models.HistoryEntry
	capacity int
}

// NewHistory returns an empty history with the given capacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{capacity: capacity}
}

// Append records an entry, evicting the oldest if the history is full.
func (h *History) Append(entry models.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	if len(h.entries) > h.capacity {
		h.entries = append(h.entries[:0], h.entries[len(h.entries)-h.capacity:]...)
	}
}

// Snapshot returns all entries, oldest first.
func (h *History) Snapshot() []models.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]models.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Resize changes the capacity, evicting the oldest entries to fit.
func (h *History) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.capacity = capacity
	if len(h.entries) > capacity {
		h.entries = append(h.entries[:0], h.entries[len(h.entries)-capacity:]...)
	}
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
