// Package pipeline implements the moderation-and-dispatch core: the ban
// and strike ledger, the cooldown gate, the bounded dispatch queue, the
// activity history and the speech worker, tied together by the Pipeline
// orchestrator.
package pipeline

// Event names published to the transport layer. The websocket hub relays
// them verbatim to dashboard clients.
const (
	EventStatus   = "status"
	EventQueue    = "queue"
	EventBans     = "bansUpdated"
	EventLists    = "listsUpdated"
	EventSettings = "settings"
	EventFeed     = "feedStatus"
	EventHistory  = "history"
	EventLog      = "log"
)

// Notifier publishes state-change notifications to the transport layer.
// Implementations must not block: the pipeline calls Publish from hot
// paths.
type Notifier interface {
	Publish(event string, payload any)
}

// NopNotifier discards all notifications. Used in tests and as a default.
type NopNotifier struct{}

// Publish discards the event.
func (NopNotifier) Publish(string, any) {}
