package session

import (
	"fmt"
	"testing"

	"github.com/voxkit-go/voxkit/pkg/core/voice/stt"
)

func TestQueueFIFO(t *testing.T) {
	q := newTranscriptQueue(8)
	q.Push(stt.Event{Kind: stt.EventPartial, Text: "a"})
	q.Push(stt.Event{Kind: stt.EventPartial, Text: "ab"})
	q.Push(stt.Event{Kind: stt.EventFinal, Text: "abc"})

	events := q.DrainAll()
	if len(events) != 3 {
		t.Fatalf("len(events)=%d, want 3", len(events))
	}
	want := []string{"a", "ab", "abc"}
	for i, ev := range events {
		if ev.Text != want[i] {
			t.Fatalf("events[%d].Text=%q, want %q", i, ev.Text, want[i])
		}
	}
	if events[2].Kind != stt.EventFinal {
		t.Fatalf("events[2].Kind=%v, want final", events[2].Kind)
	}
}

func TestQueueDrainEmpty(t *testing.T) {
	q := newTranscriptQueue(8)
	if events := q.DrainAll(); events != nil {
		t.Fatalf("DrainAll on empty queue=%v, want nil", events)
	}
}

func TestQueueDropOldest(t *testing.T) {
	q := newTranscriptQueue(3)
	for i := 0; i < 5; i++ {
		q.Push(stt.Event{Kind: stt.EventPartial, Text: fmt.Sprintf("t%d", i)})
	}

	events := q.DrainAll()
	if len(events) != 3 {
		t.Fatalf("len(events)=%d, want 3", len(events))
	}
	want := []string{"t2", "t3", "t4"}
	for i, ev := range events {
		if ev.Text != want[i] {
			t.Fatalf("events[%d].Text=%q, want %q", i, ev.Text, want[i])
		}
	}
	if got := q.Dropped(); got != 2 {
		t.Fatalf("Dropped()=%d, want 2", got)
	}
}

func TestQueueReusableAfterDrain(t *testing.T) {
	q := newTranscriptQueue(4)
	q.Push(stt.Event{Text: "one"})
	_ = q.DrainAll()
	q.Push(stt.Event{Text: "two"})

	events := q.DrainAll()
	if len(events) != 1 || events[0].Text != "two" {
		t.Fatalf("events=%v, want single %q", events, "two")
	}
}

func TestQueueDrainCopyIsolated(t *testing.T) {
	q := newTranscriptQueue(4)
	q.Push(stt.Event{Text: "keep"})
	first := q.DrainAll()
	q.Push(stt.Event{Text: "later"})
	if first[0].Text != "keep" {
		t.Fatalf("drained event mutated: %q", first[0].Text)
	}
}
