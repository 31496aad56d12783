package models

// Outcome records what the pipeline did with a message.
type Outcome string

// History outcomes
const (
	OutcomeQueued  Outcome = "queued"
	OutcomeBlocked Outcome = "blocked"
	OutcomeDropped Outcome = "dropped"
)

// HistoryEntry holds one row of the operator activity history. Entries are
// append-only and capacity-bounded, oldest evicted first.
type HistoryEntry struct {
	ID          int64    `json:"id"`
	SenderID    string   `json:"uniqueId"`
	DisplayName string   `json:"nickname"`
	Text        string   `json:"text"`
	Timestamp   int64    `json:"ts"`
	Outcome     Outcome  `json:"outcome"`
	Reason      Reason   `json:"reason,omitempty"`
	Tokens      []string `json:"tokens,omitempty"`
}
