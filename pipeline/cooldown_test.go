package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownGatePerUser(t *testing.T) {
	g := NewCooldownGate()
	now := time.Unix(1_700_000_000, 0)

	assert.True(t, g.TryAcquire("alice", now, 0, 8*time.Second))
	assert.False(t, g.TryAcquire("alice", now.Add(time.Second), 0, 8*time.Second))
	assert.True(t, g.TryAcquire("alice", now.Add(8*time.Second), 0, 8*time.Second))
}

func TestCooldownGateGlobal(t *testing.T) {
	g := NewCooldownGate()
	now := time.Unix(1_700_000_000, 0)

	assert.True(t, g.TryAcquire("alice", now, 2*time.Second, 0))
	// A different sender is still held by the global floor.
	assert.False(t, g.TryAcquire("bob", now.Add(time.Second), 2*time.Second, 0))
	assert.True(t, g.TryAcquire("bob", now.Add(2*time.Second), 2*time.Second, 0))
}

func TestCooldownGateFailureDoesNotTouchTimestamps(t *testing.T) {
	g := NewCooldownGate()
	now := time.Unix(1_700_000_000, 0)

	assert.True(t, g.TryAcquire("alice", now, 0, 10*time.Second))
	// The failed attempt must not push alice's window forward.
	assert.False(t, g.TryAcquire("alice", now.Add(9*time.Second), 0, 10*time.Second))
	assert.True(t, g.TryAcquire("alice", now.Add(10*time.Second), 0, 10*time.Second))
}

func TestCooldownGateConcurrentSingleWinner(t *testing.T) {
	g := NewCooldownGate()
	now := time.Unix(1_700_000_000, 0)

	const n = 32
	var wg sync.WaitGroup
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- g.TryAcquire("alice", now, time.Second, time.Second)
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one acquisition may pass on the same timestamp")
}
