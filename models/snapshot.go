package models

// QueueSnapshot is the queue view broadcast to dashboard clients. Items is
// truncated to the first maxSnapshotItems pending messages.
type QueueSnapshot struct {
	TTSEnabled bool      `json:"ttsEnabled"`
	Speaking   bool      `json:"speaking"`
	Capacity   int       `json:"capacity"`
	Size       int       `json:"size"`
	Items      []Message `json:"items"`
}

// StatusSnapshot is the compact status view broadcast on speech toggle and
// worker state changes.
type StatusSnapshot struct {
	TTSEnabled bool `json:"ttsEnabled"`
	Speaking   bool `json:"speaking"`
	QueueSize  int  `json:"queueSize"`
}

// ListsSnapshot is the word-list view broadcast after edits and reloads.
// Both slices are truncated to the first maxSnapshotWords entries.
type ListsSnapshot struct {
	Exact     []string `json:"badwordsExact"`
	Substring []string `json:"badwordsSub"`
}

// FeedStatus is the live-feed connection view. Status is one of idle,
// connecting, connected or error; a failed connect is terminal until the
// operator reconnects.
type FeedStatus struct {
	Status    string `json:"status"`
	Live      bool   `json:"live"`
	LastError string `json:"lastError,omitempty"`
	RoomID    string `json:"roomId,omitempty"`
}

// LogEvent is one structured log line published to dashboard clients. Type
// names the event (tts_speak, blocked_filter, queue_drop, ...); Fields
// carries event-specific context.
type LogEvent struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"ts"`
	Fields    map[string]any `json:"fields,omitempty"`
}
