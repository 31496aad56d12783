package models

// Origin marks where a message entered the pipeline from.
type Origin string

// Message origins
const (
	OriginLive   Origin = "live"
	OriginManual Origin = "manual"
)

// Message holds a chat message that passed every moderation gate and is
// waiting to be spoken. Immutable once created; the id is unique for the
// process lifetime and is what skip-by-id operates on.
type Message struct {
	ID          int64  `json:"id"`
	SenderID    string `json:"uniqueId"`
	DisplayName string `json:"nickname"`
	Text        string `json:"text"`
	SubmittedAt int64  `json:"ts"`
	Origin      Origin `json:"source"`
}
