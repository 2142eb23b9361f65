package mqtt

import (
	"fmt"
	"testing"
)

func TestOfflineQueueEmptyDrain(t *testing.T) {
	q := newOfflineQueue(10)
	if msgs := q.drain(); msgs != nil {
		t.Errorf("expected nil from empty drain, got %v", msgs)
	}
}

func TestOfflineQueuePushDrainOrder(t *testing.T) {
	q := newOfflineQueue(10)
	for i := 0; i < 3; i++ {
		q.push(queuedMsg{topic: "t", payload: []byte(fmt.Sprintf("m%d", i))})
	}
	if q.len() != 3 {
		t.Fatalf("len: got %d, want 3", q.len())
	}

	msgs := q.drain()
	if len(msgs) != 3 {
		t.Fatalf("drained %d messages, want 3", len(msgs))
	}
	for i, m := range msgs {
		want := fmt.Sprintf("m%d", i)
		if string(m.payload) != want {
			t.Errorf("message %d: got %q, want %q", i, m.payload, want)
		}
	}

	if q.len() != 0 {
		t.Errorf("queue should be empty after drain, len=%d", q.len())
	}
}

func TestOfflineQueueDropsOldestWhenFull(t *testing.T) {
	const capacity = 5
	q := newOfflineQueue(capacity)
	for i := 0; i < capacity+3; i++ {
		q.push(queuedMsg{payload: []byte(fmt.Sprintf("m%d", i))})
	}

	if q.len() != capacity {
		t.Fatalf("len: got %d, want %d", q.len(), capacity)
	}

	msgs := q.drain()
	// Oldest three were dropped: m3..m7 survive.
	for i, m := range msgs {
		want := fmt.Sprintf("m%d", i+3)
		if string(m.payload) != want {
			t.Errorf("message %d: got %q, want %q", i, m.payload, want)
		}
	}
}

func TestOfflineQueueDrainResetsDropFlag(t *testing.T) {
	q := newOfflineQueue(1)
	q.push(queuedMsg{payload: []byte("a")})
	q.push(queuedMsg{payload: []byte("b")})
	if !q.dropped {
		t.Fatal("expected dropped flag after overflow")
	}

	q.drain()
	if q.dropped {
		t.Error("drain should reset the dropped flag")
	}
}

func TestOfflineQueuePreservesAttributes(t *testing.T) {
	q := newOfflineQueue(4)
	q.push(queuedMsg{topic: "fan/attic/system", payload: []byte("x"), qos: 1, retained: true})

	msgs := q.drain()
	if len(msgs) != 1 {
		t.Fatalf("drained %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.topic != "fan/attic/system" || m.qos != 1 || !m.retained {
		t.Errorf("attributes lost: %+v", m)
	}
}
