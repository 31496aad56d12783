package pipeline

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/chat-tts-api/models"
	"github.com/linesmerrill/chat-tts-api/storage"
)

// Ban duration clamp, in minutes.
const (
	minBanMinutes = 1
	maxBanMinutes = 1440
)

// Ledger is the ban and strike subsystem. Bans are durable (mirrored to
// the ban file on every mutation); strikes are deliberately in-memory
// only, so a restart forgives accumulated strikes but never an active
// ban.
type Ledger struct {
	file     *storage.BanFile
	notifier Notifier
	now      func() time.Time

	mu      sync.Mutex
	list    models.BanList
	strikes map[string]int
}

// NewLedger loads the ban file. A read failure is fatal at startup: the
// pipeline cannot run without knowing who is banned.
func NewLedger(file *storage.BanFile, notifier Notifier) (*Ledger, error) {
	list, err := file.Load()
	if err != nil {
		return nil, fmt.Errorf("ban ledger: %w", err)
	}
	return &Ledger{
		file:     file,
		notifier: notifier,
		now:      time.Now,
		list:     list,
		strikes:  map[string]int{},
	}, nil
}

// IsBanned reports whether the sender is banned. Reading an expired entry
// evicts it as a side effect: the entry is deleted, the file is rewritten
// and a bans-changed notification goes out. There is no background sweep.
func (l *Ledger) IsBanned(senderID string) (bool, models.BanEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.list.Users[senderID]
	if !ok {
		return false, models.BanEntry{}
	}
	if entry.UntilMs > 0 && l.now().UnixMilli() > entry.UntilMs {
		delete(l.list.Users, senderID)
		l.persistLocked()
		return false, models.BanEntry{}
	}
	return true, entry
}

// Ban records a ban for the sender. Minutes of zero or less means
// permanent; anything else is clamped to [1, 1440]. Last write wins.
func (l *Ledger) Ban(senderID, reason string, minutes int) models.BanEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.banLocked(senderID, reason, minutes)
}

func (l *Ledger) banLocked(senderID, reason string, minutes int) models.BanEntry {
	nowMs := l.now().UnixMilli()
	entry := models.BanEntry{Reason: reason, AddedAtMs: nowMs}
	if minutes > 0 {
		if minutes < minBanMinutes {
			minutes = minBanMinutes
		}
		if minutes > maxBanMinutes {
			minutes = maxBanMinutes
		}
		entry.UntilMs = nowMs + int64(minutes)*60_000
	}
	l.list.Users[senderID] = entry
	l.persistLocked()
	return entry
}

// Unban removes the sender's entry. Returns false if none existed.
func (l *Ledger) Unban(senderID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.list.Users[senderID]; !ok {
		return false
	}
	delete(l.list.Users, senderID)
	l.persistLocked()
	return true
}

// AddStrike increments the sender's in-memory strike count. When the
// auto-ban policy is enabled and the count reaches the threshold, the
// sender is banned with a synthesized reason and the count resets to
// zero. Returns the count after the increment.
func (l *Ledger) AddStrike(senderID string, policy models.AutoBanSettings) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := l.strikes[senderID] + 1
	l.strikes[senderID] = count

	if policy.Enabled && count >= policy.StrikeThreshold {
		l.banLocked(senderID, fmt.Sprintf("auto-ban: %d strikes", count), policy.BanMinutes)
		l.strikes[senderID] = 0
	}
	return count
}

// Strikes returns the sender's current strike count.
func (l *Ledger) Strikes(senderID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.strikes[senderID]
}

// Snapshot returns a copy of the full ledger for the dashboard.
func (l *Ledger) Snapshot() models.BanList {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := models.NewBanList()
	for id, entry := range l.list.Users {
		out.Users[id] = entry
	}
	return out
}

// Reload replaces the in-memory ledger from the file, absorbing an
// external edit. On read failure the previous state stays in effect.
func (l *Ledger) Reload() error {
	list, err := l.file.Load()
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.list = list
	l.mu.Unlock()
	l.notifier.Publish(EventBans, l.Snapshot())
	return nil
}

// persistLocked mirrors the ledger to disk and notifies. A write failure
// degrades gracefully: the in-memory state stays authoritative.
func (l *Ledger) persistLocked() {
	if err := l.file.Save(l.list); err != nil {
		zap.S().Errorw("failed to persist ban ledger", "error", err)
	}
	snapshot := models.NewBanList()
	for id, entry := range l.list.Users {
		snapshot.Users[id] = entry
	}
	l.notifier.Publish(EventBans, snapshot)
}
