package models

// Reason is a rejection reason code. The set is closed so downstream
// consumers (history, dashboard, logs) can branch on it; free-text reasons
// never appear here.
type Reason string

// Content filter reasons, in the order the filter checks them.
const (
	ReasonEmpty        Reason = "empty"
	ReasonURL          Reason = "url"
	ReasonEmail        Reason = "email"
	ReasonPhone        Reason = "phone"
	ReasonMention      Reason = "mention"
	ReasonRepeatSpam   Reason = "repeat_spam"
	ReasonPunctSpam    Reason = "punct_spam"
	ReasonChars        Reason = "chars"
	ReasonEmptyNorm    Reason = "empty_norm"
	ReasonTooManyWords Reason = "too_many_words"
	ReasonSpacedWord   Reason = "badword_spaced"
	ReasonExactWord    Reason = "badword_exact"
	ReasonJoinedWord   Reason = "badword_joined"
)

// Ban, cooldown and queue stage reasons.
const (
	ReasonBanned      Reason = "banned"
	ReasonCooldown    Reason = "cooldown"
	ReasonQueueFull   Reason = "queue_full"
	ReasonQueueResize Reason = "queue_resize"
)
