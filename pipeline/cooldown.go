package pipeline

import (
	"sync"
	"time"
)

// CooldownGate enforces the global and per-sender minimum intervals
// between utterances. The guard check and the timestamp update happen
// under one lock so no two acquisitions can both pass on the same stale
// timestamp.
type CooldownGate struct {
	mu         sync.Mutex
	lastGlobal time.Time
	lastUser   map[string]time.Time
}

// NewCooldownGate returns a gate with no history: the first acquisition
// always succeeds.
func NewCooldownGate() *CooldownGate {
	return &CooldownGate{lastUser: map[string]time.Time{}}
}

// TryAcquire reports whether the sender may speak now. Both the global
// and the per-sender floor must hold; on success both timestamps are
// updated in the same critical section. Failure is final for the message,
// there is no queued retry.
func (g *CooldownGate) TryAcquire(senderID string, now time.Time, global, perUser time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if now.Sub(g.lastGlobal) < global {
		return false
	}
	if last, ok := g.lastUser[senderID]; ok && now.Sub(last) < perUser {
		return false
	}
	g.lastGlobal = now
	g.lastUser[senderID] = now
	return true
}
