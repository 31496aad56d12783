package pipeline

import (
	"sync"

	"github.com/linesmerrill/chat-tts-api/models"
)

// Queue is the bounded FIFO of accepted messages awaiting speech.
// Capacity is enforced at the boundary: a full queue rejects the incoming
// message and never evicts older ones, which keeps earlier senders ahead.
type Queue struct {
	mu       sync.Mutex
	items    []models.Message
	capacity int
}

// NewQueue returns an empty queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{capacity: capacity}
}

// Enqueue appends a message. Returns false, leaving the queue unchanged,
// when the queue is full.
func (q *Queue) Enqueue(msg models.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, msg)
	return true
}

// Pop removes and returns the head message.
func (q *Queue) Pop() (models.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return models.Message{}, false
	}
	msg := q.items[0]
	q.items = append(q.items[:0], q.items[1:]...)
	return msg, true
}

// Skip removes a specific not-yet-spoken message by id, regardless of
// position. Returns false if the id is not queued.
func (q *Queue) Skip(id int64) (models.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, msg := range q.items {
		if msg.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return msg, true
		}
	}
	return models.Message{}, false
}

// Clear empties the queue and returns how many messages were removed.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = nil
	return n
}

// Resize changes the capacity. When the queue holds more than the new
// capacity, the excess is evicted from the tail (most recently enqueued
// first) and returned so the caller can record the drops; the oldest
// messages stay, order preserved.
func (q *Queue) Resize(capacity int) []models.Message {
	if capacity < 1 {
		capacity = 1
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.capacity = capacity
	if len(q.items) <= capacity {
		return nil
	}
	evicted := make([]models.Message, len(q.items)-capacity)
	copy(evicted, q.items[capacity:])
	q.items = q.items[:capacity]
	return evicted
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Capacity returns the current capacity.
func (q *Queue) Capacity() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.capacity
}

// Items returns up to limit queued messages from the head, for snapshots.
func (q *Queue) Items(limit int) []models.Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]models.Message, n)
	copy(out, q.items[:n])
	return out
}
