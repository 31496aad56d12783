package pipeline

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/chat-tts-api/models"
	"github.com/linesmerrill/chat-tts-api/moderation"
	"github.com/linesmerrill/chat-tts-api/speech"
	"github.com/linesmerrill/chat-tts-api/storage"
)

// Snapshot truncation bounds, matching what the dashboard renders.
const (
	maxSnapshotItems = 20
	maxSnapshotWords = 200
)

// Test-message repeat clamp.
const maxTestRepeat = 10

// Pipeline ties the moderation gates, the dispatch queue and the speech
// worker together. Every inbound message is classified synchronously
// (ban, filter, cooldown, capacity) and every stage that rejects one
// records the outcome to the history and the log; nothing is dropped
// silently. Speech itself always happens on the worker goroutine, so
// ingestion never waits on synthesis.
type Pipeline struct {
	settings *storage.SettingsStore
	lists    *storage.ListStore
	ledger   *Ledger
	gate     *CooldownGate
	queue    *Queue
	history  *History
	worker   *Worker
	notifier Notifier

	nextID atomic.Int64
	now    func() time.Time
}

// New wires a pipeline from its collaborators. The queue and history take
// their capacities from the current settings snapshot.
func New(settings *storage.SettingsStore, lists *storage.ListStore, ledger *Ledger,
	engines map[string]speech.Engine, baseline speech.Engine, notifier Notifier) *Pipeline {

	s := settings.Get()
	p := &Pipeline{
		settings: settings,
		lists:    lists,
		ledger:   ledger,
		gate:     NewCooldownGate(),
		queue:    NewQueue(s.MaxQueue),
		history:  NewHistory(s.HistorySize),
		notifier: notifier,
		now:      time.Now,
	}
	p.worker = NewWorker(p.queue, settings, engines, baseline, notifier)
	p.worker.onDrain = func() {
		p.notifier.Publish(EventQueue, p.QueueSnapshot())
	}
	return p
}

// Ledger exposes the ban subsystem to the operator API.
func (p *Pipeline) Ledger() *Ledger { return p.ledger }

// HandleChat runs one live feed event through every gate. It never
// blocks on speech synthesis.
func (p *Pipeline) HandleChat(senderID, displayName, text string) {
	s := p.settings.Get()

	if banned, entry := p.ledger.IsBanned(senderID); banned {
		p.record(models.HistoryEntry{
			ID: p.nextID.Add(1), SenderID: senderID, DisplayName: displayName,
			Text: text, Outcome: models.OutcomeBlocked, Reason: models.ReasonBanned,
		}, "blocked_banned_user", map[string]any{
			"uniqueId": senderID, "nickname": displayName, "comment": text, "banReason": entry.Reason,
		})
		return
	}

	out := moderation.Filter(text, moderation.Limits{MaxChars: s.MaxChars, MaxWords: s.MaxWords}, p.lists.Get())
	if !out.Accepted {
		strikes := p.ledger.AddStrike(senderID, s.AutoBan)
		p.record(models.HistoryEntry{
			ID: p.nextID.Add(1), SenderID: senderID, DisplayName: displayName,
			Text: text, Outcome: models.OutcomeBlocked, Reason: out.Reason, Tokens: out.Tokens,
		}, "blocked_filter", map[string]any{
			"uniqueId": senderID, "nickname": displayName, "comment": text,
			"reason": out.Reason, "strikes": strikes,
		})
		return
	}

	global := time.Duration(s.GlobalCooldownMs) * time.Millisecond
	perUser := time.Duration(s.PerUserCooldownMs) * time.Millisecond
	if !p.gate.TryAcquire(senderID, p.now(), global, perUser) {
		p.record(models.HistoryEntry{
			ID: p.nextID.Add(1), SenderID: senderID, DisplayName: displayName,
			Text: out.Text, Outcome: models.OutcomeBlocked, Reason: models.ReasonCooldown, Tokens: out.Tokens,
		}, "blocked_cooldown", map[string]any{
			"uniqueId": senderID, "nickname": displayName, "comment": text,
		})
		return
	}

	p.enqueue(senderID, displayName, out, models.OriginLive)
}

// SubmitTest injects an operator test message, repeated up to
// maxTestRepeat times. Ban and filter checks still apply; the cooldown
// gate and the strike counter do not, matching the manual-injection
// semantics of the dashboard. Returns the queued messages and, when
// nothing was queued, the rejection reason.
func (p *Pipeline) SubmitTest(senderID, displayName, text string, repeat int) ([]models.Message, models.Reason) {
	if repeat < 1 {
		repeat = 1
	}
	if repeat > maxTestRepeat {
		repeat = maxTestRepeat
	}

	if banned, entry := p.ledger.IsBanned(senderID); banned {
		p.record(models.HistoryEntry{
			ID: p.nextID.Add(1), SenderID: senderID, DisplayName: displayName,
			Text: text, Outcome: models.OutcomeBlocked, Reason: models.ReasonBanned,
		}, "blocked_banned_user", map[string]any{
			"uniqueId": senderID, "nickname": displayName, "comment": text, "banReason": entry.Reason, "source": "local",
		})
		return nil, models.ReasonBanned
	}

	s := p.settings.Get()
	out := moderation.Filter(text, moderation.Limits{MaxChars: s.MaxChars, MaxWords: s.MaxWords}, p.lists.Get())
	if !out.Accepted {
		p.record(models.HistoryEntry{
			ID: p.nextID.Add(1), SenderID: senderID, DisplayName: displayName,
			Text: text, Outcome: models.OutcomeBlocked, Reason: out.Reason, Tokens: out.Tokens,
		}, "blocked_filter", map[string]any{
			"uniqueId": senderID, "nickname": displayName, "comment": text, "reason": out.Reason, "source": "local",
		})
		return nil, out.Reason
	}

	var queued []models.Message
	for i := 0; i < repeat; i++ {
		msg, ok := p.enqueue(senderID, displayName, out, models.OriginManual)
		if !ok {
			if len(queued) == 0 {
				return nil, models.ReasonQueueFull
			}
			break
		}
		queued = append(queued, msg)
	}
	return queued, ""
}

// enqueue creates the Message, applies the overflow policy and wakes the
// worker. A full queue rejects the incoming message and records the drop.
func (p *Pipeline) enqueue(senderID, displayName string, out moderation.Outcome, origin models.Origin) (models.Message, bool) {
	msg := models.Message{
		ID:          p.nextID.Add(1),
		SenderID:    senderID,
		DisplayName: displayName,
		Text:        out.Text,
		SubmittedAt: p.now().UnixMilli(),
		Origin:      origin,
	}

	if !p.queue.Enqueue(msg) {
		p.record(models.HistoryEntry{
			ID: msg.ID, SenderID: senderID, DisplayName: displayName,
			Text: out.Text, Outcome: models.OutcomeDropped, Reason: models.ReasonQueueFull, Tokens: out.Tokens,
		}, "queue_drop", map[string]any{
			"uniqueId": senderID, "nickname": displayName, "text": out.Text, "reason": models.ReasonQueueFull,
		})
		return models.Message{}, false
	}

	p.record(models.HistoryEntry{
		ID: msg.ID, SenderID: senderID, DisplayName: displayName,
		Text: out.Text, Outcome: models.OutcomeQueued, Tokens: out.Tokens,
	}, "queued", map[string]any{
		"id": msg.ID, "uniqueId": senderID, "nickname": displayName, "text": out.Text,
	})
	p.notifier.Publish(EventQueue, p.QueueSnapshot())

	if p.settings.Get().TTSEnabled {
		p.worker.Kick()
	}
	return msg, true
}

// Ban records an operator ban and logs it. Minutes of zero or less means
// permanent.
func (p *Pipeline) Ban(senderID, reason string, minutes int) models.BanEntry {
	entry := p.ledger.Ban(senderID, reason, minutes)
	p.publishLog("ban", map[string]any{"uniqueId": senderID, "reason": reason, "untilMs": entry.UntilMs})
	return entry
}

// Unban lifts a ban and logs it. Returns false if the sender was not
// banned.
func (p *Pipeline) Unban(senderID string) bool {
	if !p.ledger.Unban(senderID) {
		return false
	}
	p.publishLog("unban", map[string]any{"uniqueId": senderID})
	return true
}

// Skip cancels a not-yet-spoken message by id. It cannot interrupt audio
// already rendering.
func (p *Pipeline) Skip(id int64) bool {
	msg, ok := p.queue.Skip(id)
	if !ok {
		return false
	}
	p.publishLog("queue_skip", map[string]any{"id": msg.ID, "uniqueId": msg.SenderID, "text": msg.Text})
	p.notifier.Publish(EventQueue, p.QueueSnapshot())
	return true
}

// Clear empties the queue unconditionally.
func (p *Pipeline) Clear() int {
	n := p.queue.Clear()
	p.publishLog("queue_clear", map[string]any{"removed": n})
	p.notifier.Publish(EventQueue, p.QueueSnapshot())
	return n
}

// SetSpeechEnabled toggles speech through the settings store. Enabling
// with a pending queue wakes the worker; disabling lets the current
// utterance finish and leaves the queue intact.
func (p *Pipeline) SetSpeechEnabled(enabled bool) (models.Settings, error) {
	s, err := p.settings.Update(models.SettingsPatch{TTSEnabled: &enabled})
	if err != nil {
		return models.Settings{}, err
	}
	p.notifier.Publish(EventStatus, p.StatusSnapshot())
	if enabled {
		p.worker.Kick()
	}
	return s, nil
}

// UpdateSettings applies an operator patch, then the queue and history
// resize side effects.
func (p *Pipeline) UpdateSettings(patch models.SettingsPatch) (models.Settings, error) {
	s, err := p.settings.Update(patch)
	if err != nil {
		return models.Settings{}, err
	}
	p.applySettings(s)
	return s, nil
}

// ReloadSettings absorbs an external settings file edit. A failed read
// keeps the previous snapshot in effect.
func (p *Pipeline) ReloadSettings() {
	s, changed, err := p.settings.Reload()
	if err != nil {
		zap.S().Warnw("settings reload failed, keeping previous", "error", err)
		return
	}
	if changed {
		p.applySettings(s)
	}
}

// applySettings propagates a new snapshot: shrinking the queue evicts the
// most recently enqueued messages (recorded as queue_resize drops, oldest
// messages keep their order); shrinking the history evicts its oldest
// entries.
func (p *Pipeline) applySettings(s models.Settings) {
	evicted := p.queue.Resize(s.MaxQueue)
	for _, msg := range evicted {
		p.record(models.HistoryEntry{
			ID: msg.ID, SenderID: msg.SenderID, DisplayName: msg.DisplayName,
			Text: msg.Text, Outcome: models.OutcomeDropped, Reason: models.ReasonQueueResize,
		}, "queue_resize", map[string]any{
			"id": msg.ID, "uniqueId": msg.SenderID, "text": msg.Text,
		})
	}
	p.history.Resize(s.HistorySize)

	p.notifier.Publish(EventSettings, s)
	p.notifier.Publish(EventQueue, p.QueueSnapshot())
	if s.TTSEnabled && p.queue.Len() > 0 {
		p.worker.Kick()
	}
}

// Settings returns the current settings snapshot.
func (p *Pipeline) Settings() models.Settings {
	return p.settings.Get()
}

// QueueSnapshot returns the queue view for the dashboard.
func (p *Pipeline) QueueSnapshot() models.QueueSnapshot {
	return models.QueueSnapshot{
		TTSEnabled: p.settings.Get().TTSEnabled,
		Speaking:   p.worker.Speaking(),
		Capacity:   p.queue.Capacity(),
		Size:       p.queue.Len(),
		Items:      p.queue.Items(maxSnapshotItems),
	}
}

// StatusSnapshot returns the compact status view.
func (p *Pipeline) StatusSnapshot() models.StatusSnapshot {
	return models.StatusSnapshot{
		TTSEnabled: p.settings.Get().TTSEnabled,
		Speaking:   p.worker.Speaking(),
		QueueSize:  p.queue.Len(),
	}
}

// ListsSnapshot returns the word-list view, truncated for the dashboard.
func (p *Pipeline) ListsSnapshot() models.ListsSnapshot {
	lists := p.lists.Get()
	return models.ListsSnapshot{
		Exact:     truncateWords(lists.Exact()),
		Substring: truncateWords(lists.Substrings()),
	}
}

// HistorySnapshot returns the recorded outcomes, oldest first.
func (p *Pipeline) HistorySnapshot() []models.HistoryEntry {
	return p.history.Snapshot()
}

// record appends a history entry and publishes both the entry and the
// matching structured log event.
func (p *Pipeline) record(entry models.HistoryEntry, eventType string, fields map[string]any) {
	entry.Timestamp = p.now().UnixMilli()
	p.history.Append(entry)
	p.notifier.Publish(EventHistory, entry)
	p.publishLog(eventType, fields)
}

func (p *Pipeline) publishLog(eventType string, fields map[string]any) {
	zap.S().Infow(eventType, "fields", fields)
	p.notifier.Publish(EventLog, models.LogEvent{
		Type:      eventType,
		Timestamp: p.now().UnixMilli(),
		Fields:    fields,
	})
}

func truncateWords(words []string) []string {
	if len(words) > maxSnapshotWords {
		return words[:maxSnapshotWords]
	}
	return words
}
