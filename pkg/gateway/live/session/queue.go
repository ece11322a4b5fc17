package session

import (
	"sync"

	"github.com/voxkit-go/voxkit/pkg/core/voice/stt"
)

// transcriptQueue bridges the recognizer's read goroutine and the
// session's forward loop. Push never blocks: when the queue is full the
// oldest event is dropped so a stalled consumer can never back-pressure
// the recognizer.
type transcriptQueue struct {
	mu       sync.Mutex
	events   []stt.Event
	capacity int
	dropped  uint64
}

func newTranscriptQueue(capacity int) *transcriptQueue {
	if capacity <= 0 {
		capacity = 256
	}
	return &transcriptQueue{
		events:   make([]stt.Event, 0, capacity),
		capacity: capacity,
	}
}

func (q *transcriptQueue) Push(ev stt.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) >= q.capacity {
		copy(q.events, q.events[1:])
		q.events = q.events[:len(q.events)-1]
		q.dropped++
	}
	q.events = append(q.events, ev)
}

// DrainAll pops every queued event in order without blocking.
func (q *transcriptQueue) DrainAll() []stt.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := append([]stt.Event(nil), q.events...)
	q.events = q.events[:0]
	return out
}

// Dropped returns how many events were discarded due to overflow.
func (q *transcriptQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
